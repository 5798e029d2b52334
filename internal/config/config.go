// Package config loads linqsql settings from flags, the environment, a
// .env file and an optional linqsql.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/linqsql/internal/schema"
	"github.com/roach88/linqsql/internal/store"
)

// EnvPrefix prefixes every environment variable, e.g. LINQSQL_DSN.
const EnvPrefix = "LINQSQL"

// Output and log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the application configuration.
type Config struct {
	Driver    string
	DSN       string
	Schema    string // path to a schema mapping file, empty for identity
	Format    string
	LogFormat string
	Verbose   bool

	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string

	fs afero.Fs
}

// Options controls where Load looks.
type Options struct {
	// Fs is the filesystem for config, .env and schema files.
	// Defaults to the OS filesystem.
	Fs afero.Fs

	// ConfigFile is an explicit config path. When set it must exist.
	ConfigFile string

	// SearchPaths are searched for linqsql.yaml when ConfigFile is empty.
	// Defaults to ".", the home directory and ~/.config/linqsql.
	SearchPaths []string

	// DotEnv is the .env file to read. Defaults to ".env"; a missing
	// file is ignored.
	DotEnv string

	// Flags are bound to their keys when present. Flag names use dashes
	// ("log-format"), keys use underscores.
	Flags *pflag.FlagSet
}

// keys lists every setting and its flag.
var keys = map[string]string{
	"driver":     "driver",
	"dsn":        "dsn",
	"schema":     "schema",
	"format":     "format",
	"log_format": "log-format",
	"verbose":    "verbose",
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	v := viper.New()
	v.SetFs(fs)

	v.SetDefault("driver", store.DriverSQLite)
	v.SetDefault("dsn", ":memory:")
	v.SetDefault("format", FormatText)
	v.SetDefault("log_format", FormatText)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// DATABASE_URL is honored as a fallback for the connection string.
	if err := v.BindEnv("dsn", EnvPrefix+"_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind dsn env: %w", err)
	}

	if err := readConfigFile(v, opts); err != nil {
		return nil, err
	}
	if err := mergeDotEnv(v, fs, opts.DotEnv); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for key, name := range keys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %q: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Driver:     v.GetString("driver"),
		DSN:        v.GetString("dsn"),
		Schema:     v.GetString("schema"),
		Format:     v.GetString("format"),
		LogFormat:  v.GetString("log_format"),
		Verbose:    v.GetBool("verbose"),
		ConfigFile: v.ConfigFileUsed(),
		fs:         fs,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, opts Options) error {
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
		return nil
	}

	v.SetConfigName("linqsql")
	v.SetConfigType("yaml")
	paths := opts.SearchPaths
	if paths == nil {
		paths = defaultSearchPaths()
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", "linqsql"))
	}
	return paths
}

// mergeDotEnv layers LINQSQL_* entries of a .env file over the config
// file. Real environment variables and flags still take precedence.
func mergeDotEnv(v *viper.Viper, fs afero.Fs, path string) error {
	if path == "" {
		path = ".env"
	}
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	settings := make(map[string]any)
	for name, value := range env {
		key, ok := strings.CutPrefix(name, EnvPrefix+"_")
		if !ok {
			continue
		}
		key = strings.ToLower(key)
		if _, known := keys[key]; known {
			settings[key] = value
		}
	}
	if len(settings) == 0 {
		return nil
	}
	return v.MergeConfigMap(settings)
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("invalid driver %q (want %s or %s)", c.Driver, store.DriverSQLite, store.DriverPostgres)
	}
	for name, value := range map[string]string{"format": c.Format, "log_format": c.LogFormat} {
		if value != FormatText && value != FormatJSON {
			return fmt.Errorf("invalid %s %q (want %s or %s)", name, value, FormatText, FormatJSON)
		}
	}
	return nil
}

// Resolver returns the schema resolver: the mapping file when Schema is
// set, identity otherwise.
func (c *Config) Resolver() (schema.Resolver, error) {
	if c.Schema == "" {
		return schema.Identity{}, nil
	}
	fs := c.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, c.Schema)
	if err != nil {
		return nil, fmt.Errorf("read schema mapping: %w", err)
	}
	return schema.ParseMapping(data)
}
