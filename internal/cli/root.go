package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/roach88/linqsql/internal/config"
	"github.com/roach88/linqsql/internal/schema"
	"github.com/roach88/linqsql/internal/store"
)

// RootOptions holds global flags for all commands. Commands read the
// resolved values; flags, environment and config file are merged by the
// root command before any subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	LogFormat  string // "json" | "text"
	ConfigFile string
	Driver     string
	DSN        string
	Schema     string // path to a schema mapping file

	// cfg is the configuration the values were resolved from. It is nil
	// when the options were built without the root command.
	cfg *config.Config
}

// NewRootCommand creates the root command for the linqsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "linqsql",
		Short: "Translate query trees to parameterized SQL",
		Long: `linqsql compiles query documents (YAML, JSON or CUE) into
parameterized SQL, runs them against SQLite or PostgreSQL and
materializes the rows.

Settings come from flags, LINQSQL_* environment variables, a .env file
and linqsql.yaml, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{
				ConfigFile: opts.ConfigFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			opts.apply(cfg)
			setupLogging(cmd.ErrOrStderr(), opts)
			if cfg.ConfigFile != "" {
				slog.Debug("config loaded", "file", cfg.ConfigFile)
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", config.FormatText, "output format (json|text)")
	flags.StringVar(&opts.LogFormat, "log-format", config.FormatText, "log format on stderr (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default: linqsql.yaml in ., $HOME or ~/.config/linqsql)")
	flags.StringVar(&opts.Driver, "driver", store.DriverSQLite, "database driver (sqlite|postgres)")
	flags.StringVar(&opts.DSN, "dsn", ":memory:", "database path or connection string")
	flags.StringVar(&opts.Schema, "schema", "", "schema mapping file (default: names map unchanged)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// apply copies resolved settings into the options.
func (o *RootOptions) apply(cfg *config.Config) {
	o.Verbose = cfg.Verbose
	o.Format = cfg.Format
	o.LogFormat = cfg.LogFormat
	o.Driver = cfg.Driver
	o.DSN = cfg.DSN
	o.Schema = cfg.Schema
	o.cfg = cfg
}

// formatter returns an OutputFormatter writing to cmd's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// schemaResolver returns the resolver of the loaded configuration. Schema
// files are read through the configuration's filesystem.
func (o *RootOptions) schemaResolver() (schema.Resolver, error) {
	cfg := o.cfg
	if cfg == nil {
		cfg = &config.Config{Schema: o.Schema}
	}
	r, err := cfg.Resolver()
	if err != nil {
		return nil, &codedError{code: ErrCodeConfig, err: fmt.Errorf("schema %s: %w", cfg.Schema, err)}
	}
	return r, nil
}

// setupLogging installs the default slog handler. Text logs use tint;
// --verbose lowers the level to debug.
func setupLogging(w io.Writer, opts *RootOptions) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.LogFormat == config.FormatJSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    color.NoColor,
		})
	}
	slog.SetDefault(slog.New(handler))
}
