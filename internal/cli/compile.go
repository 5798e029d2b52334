package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/linqsql/internal/engine"
	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/querydoc"
	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompileResult is the compiled statement of one query document.
type CompileResult struct {
	File        string      `json:"file"`
	SQL         string      `json:"sql"`
	Params      []ParamView `json:"params"`
	Fingerprint string      `json:"fingerprint"`
}

// ParamView is one bound parameter. Value is canonical JSON, so decimals,
// times and uuids keep their exact text.
type ParamView struct {
	Name  string          `json:"name"`
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query-file>",
		Short: "Compile a query document to parameterized SQL",
		Long: `Compile a query document to a SQL statement and its parameters.

The document format follows the file extension (.yaml, .yml, .json or
.cue). Names are mapped through --schema when one is given. Nothing is
sent to a database.

Examples:
  linqsql compile ./queries/london.yaml
  linqsql compile ./queries/london.cue --schema mapping.yaml --format json
  linqsql compile ./queries/london.yaml -o london.sql.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled command as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	traceID := engine.UUIDv7Generator{}.Generate()

	resolver, err := opts.schemaResolver()
	if err != nil {
		return formatter.fail(err, traceID)
	}

	q, err := loadQuery(path)
	if err != nil {
		return formatter.fail(err, traceID)
	}
	formatter.VerboseLog("Loaded %s (main source %s)", path, q.From.Entity)

	compiled, err := engine.New(resolver).Compile(q)
	if err != nil {
		slog.Debug("compile failed", "trace_id", traceID, "file", path, "error", err)
		return formatter.fail(err, traceID)
	}

	result, err := newCompileResult(path, compiled)
	if err != nil {
		return formatter.fail(err, traceID)
	}

	if opts.Output != "" {
		if err := writeResultFile(result, opts.Output); err != nil {
			return formatter.fail(&codedError{code: ErrCodeWriteFailed, err: err}, traceID)
		}
	}

	if formatter.Format == "json" {
		return formatter.SuccessWithTrace(result, traceID)
	}
	return outputCompileText(formatter, result, opts.Output)
}

// loadQuery reads and builds a query document, tagging failures with
// their CLI error code.
func loadQuery(path string) (*queryir.Query, error) {
	q, err := querydoc.Load(path)
	if err != nil {
		code := ErrCodeDocument
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, &codedError{code: code, err: err}
	}
	return q, nil
}

func newCompileResult(path string, cmd querysql.Command) (*CompileResult, error) {
	params, err := paramViews(cmd)
	if err != nil {
		return nil, err
	}
	fingerprint, err := cmd.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &CompileResult{File: path, SQL: cmd.SQL, Params: params, Fingerprint: fingerprint}, nil
}

func paramViews(cmd querysql.Command) ([]ParamView, error) {
	views := make([]ParamView, len(cmd.Params))
	for i, p := range cmd.Params {
		value, err := ir.MarshalCanonical(p.Value)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		views[i] = ParamView{
			Name:  p.Name,
			Kind:  ir.KindOf(p.Value).String(),
			Value: value,
		}
	}
	return views, nil
}

// outputCompileText prints the statement and one line per parameter.
func outputCompileText(formatter *OutputFormatter, result *CompileResult, outputFile string) error {
	w := formatter.Writer

	fmt.Fprintf(w, "%s Compiled %s\n\n", passMark, filepath.Base(result.File))
	fmt.Fprintln(w, result.SQL)

	if len(result.Params) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Parameters:")
		for _, p := range result.Params {
			fmt.Fprintf(w, "  @%s = %s (%s)\n", p.Name, p.Value, p.Kind)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote compiled command to %s\n", outputFile)
	}
	return nil
}

// writeResultFile writes the compiled command as indented JSON.
func writeResultFile(result *CompileResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling command: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
