package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/linqsql/internal/engine"
	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/materialize"
	"github.com/roach88/linqsql/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Seed string // SQL script executed before the query

	// TraceGenerator allows overriding the trace id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TraceGenerator engine.TraceGenerator
}

// RunResult is the outcome of one executed query.
type RunResult struct {
	SQL        string              `json:"sql"`
	Params     []ParamView         `json:"params"`
	Columns    []string            `json:"columns"`
	Rows       [][]json.RawMessage `json:"rows"`
	RowCount   int                 `json:"row_count"`
	DurationMS float64             `json:"duration_ms"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query-file>",
		Short: "Compile a query document and execute it",
		Long: `Compile a query document and execute it against the configured
database, printing the materialized rows.

The database is chosen with --driver and --dsn. The default is an
in-memory SQLite database, which is empty unless --seed names a script
to run first. SQLite cannot run every compiled form: queries using Skip,
Reverse, Substring, the Trim family or ExclusiveOr need --driver postgres.

Example:
  linqsql run --seed northwind.sql ./queries/london.yaml
  linqsql run --driver postgres --dsn postgres://localhost/northwind ./queries/london.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Seed, "seed", "", "SQL script to execute before the query")

	return cmd
}

func runQuery(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	traceGen := opts.TraceGenerator
	if traceGen == nil {
		traceGen = engine.UUIDv7Generator{}
	}

	resolver, err := opts.schemaResolver()
	if err != nil {
		return formatter.fail(err, "")
	}

	q, err := loadQuery(path)
	if err != nil {
		return formatter.fail(err, "")
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Debug("opening database", "driver", opts.Driver)
	db, err := store.Open(ctx, opts.Driver, opts.DSN)
	if err != nil {
		return formatter.fail(&codedError{code: ErrCodeTransport, err: fmt.Errorf("failed to open database: %w", err)}, "")
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	eng := engine.New(resolver,
		engine.WithTransport(db),
		engine.WithTraceGenerator(traceGen))

	if opts.Seed != "" {
		script, err := os.ReadFile(opts.Seed)
		if err != nil {
			return formatter.fail(&codedError{code: ErrCodeNotFound, err: fmt.Errorf("failed to read seed: %w", err)}, "")
		}
		if err := eng.Exec(ctx, string(script)); err != nil {
			return formatter.fail(err, "")
		}
		formatter.VerboseLog("Seeded database from %s", opts.Seed)
	}

	res, err := eng.Execute(ctx, q)
	if err != nil {
		return formatter.fail(err, res.TraceID)
	}

	result, err := newRunResult(res)
	if err != nil {
		return formatter.fail(err, res.TraceID)
	}

	if formatter.Format == "json" {
		return formatter.SuccessWithTrace(result, res.TraceID)
	}
	return outputRunText(formatter, res, result)
}

func newRunResult(res engine.Result) (*RunResult, error) {
	params, err := paramViews(res.Command)
	if err != nil {
		return nil, err
	}

	records := res.Records().Slice()
	result := &RunResult{
		SQL:        res.Command.SQL,
		Params:     params,
		Columns:    columnsOf(records),
		Rows:       make([][]json.RawMessage, len(records)),
		RowCount:   len(records),
		DurationMS: float64(res.Duration) / float64(time.Millisecond),
	}
	for i, rec := range records {
		values := rec.Values()
		row := make([]json.RawMessage, len(values))
		for j, v := range values {
			data, err := ir.MarshalCanonical(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i, rec.Names()[j], err)
			}
			row[j] = data
		}
		result.Rows[i] = row
	}
	return result, nil
}

// columnsOf returns the column names of the first record. Every row of a
// result has the same columns.
func columnsOf(records []materialize.Record) []string {
	if len(records) == 0 {
		return []string{}
	}
	return records[0].Names()
}

// outputRunText prints the SQL and the rows as a table.
func outputRunText(formatter *OutputFormatter, res engine.Result, result *RunResult) error {
	w := formatter.Writer

	fmt.Fprintln(w, result.SQL)
	fmt.Fprintln(w)

	if result.RowCount == 0 {
		fmt.Fprintln(w, "(no rows)")
		return nil
	}

	if color.NoColor {
		pterm.DisableStyling()
	}

	data := pterm.TableData{result.Columns}
	for _, rec := range res.Records().Slice() {
		cells := make([]string, 0, len(result.Columns))
		for _, v := range rec.Values() {
			cells = append(cells, cell(v))
		}
		data = append(data, cells)
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("rendering rows: %w", err)
	}
	fmt.Fprintln(w, table)
	fmt.Fprintf(w, "\n%s %d row(s) in %s\n", passMark, result.RowCount, res.Duration.Round(time.Microsecond))
	return nil
}

// cell renders a value for a table cell. Strings are shown unquoted.
func cell(v ir.Value) string {
	if s, ok := v.(ir.String); ok {
		return string(s)
	}
	return ir.Format(v)
}
