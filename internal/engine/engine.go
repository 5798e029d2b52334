package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/linqsql/internal/materialize"
	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/querysql"
	"github.com/roach88/linqsql/internal/schema"
	"github.com/roach88/linqsql/internal/store"
)

// Engine compiles queries and, when it has a transport, runs them.
type Engine struct {
	resolver  schema.Resolver
	compiler  *querysql.SQLCompiler
	transport store.Transport
	traceGen  TraceGenerator
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithTransport sets the database the engine executes against. Without
// one the engine only compiles.
func WithTransport(t store.Transport) EngineOption {
	return func(e *Engine) {
		e.transport = t
	}
}

// WithTraceGenerator replaces the default UUIDv7 trace ids.
func WithTraceGenerator(g TraceGenerator) EngineOption {
	return func(e *Engine) {
		e.traceGen = g
	}
}

// New creates an Engine. A nil resolver maps names unchanged.
func New(resolver schema.Resolver, opts ...EngineOption) *Engine {
	if resolver == nil {
		resolver = schema.Identity{}
	}
	e := &Engine{
		resolver: resolver,
		compiler: querysql.NewSQLCompiler(resolver),
		traceGen: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolver returns the schema resolver shared by compilation and
// materialization.
func (e *Engine) Resolver() schema.Resolver {
	return e.resolver
}

// Compile translates q without touching the database.
func (e *Engine) Compile(q *queryir.Query) (querysql.Command, error) {
	cmd, err := e.compiler.Compile(q)
	if err != nil {
		return querysql.Command{}, newCompileError("", err)
	}
	return cmd, nil
}

// Result is the outcome of one execution.
type Result struct {
	TraceID  string
	Command  querysql.Command
	Rows     []materialize.Row
	Duration time.Duration
}

// Records materializes the rows positionally, named after their columns.
func (r Result) Records() materialize.Results[materialize.Record] {
	return materialize.RecordsOf(r.Rows)
}

// Execute compiles q and runs it. The transport is only contacted after
// compilation succeeds.
func (e *Engine) Execute(ctx context.Context, q *queryir.Query) (Result, error) {
	traceID := e.traceGen.Generate()

	cmd, err := e.compiler.Compile(q)
	if err != nil {
		slog.Error("query compilation failed", "trace_id", traceID, "error", err)
		return Result{TraceID: traceID}, newCompileError(traceID, err)
	}

	if e.transport == nil {
		return Result{TraceID: traceID, Command: cmd}, &RuntimeError{
			Code:    ErrCodeNoTransport,
			Message: "no database configured",
			TraceID: traceID,
			SQL:     cmd.SQL,
		}
	}

	start := time.Now()
	rows, err := e.transport.Query(ctx, cmd)
	elapsed := time.Since(start)
	if err != nil {
		slog.Error("query execution failed",
			"trace_id", traceID,
			"sql", cmd.SQL,
			"error", err)
		return Result{TraceID: traceID, Command: cmd}, newTransportError(traceID, cmd.SQL, err)
	}

	attrs := []any{"trace_id", traceID}
	if fingerprint, err := cmd.Fingerprint(); err != nil {
		attrs = append(attrs, "fingerprint_error", err)
	} else {
		attrs = append(attrs, "fingerprint", fingerprint)
	}
	slog.Info("query executed", append(attrs,
		"entity", q.From.Entity,
		"rows", len(rows),
		"duration", elapsed)...)

	return Result{
		TraceID:  traceID,
		Command:  cmd,
		Rows:     rows,
		Duration: elapsed,
	}, nil
}

// Exec runs a script that returns no rows, such as a seed file.
func (e *Engine) Exec(ctx context.Context, script string) error {
	if e.transport == nil {
		return &RuntimeError{Code: ErrCodeNoTransport, Message: "no database configured"}
	}
	if err := e.transport.Exec(ctx, script); err != nil {
		return newTransportError("", "", err)
	}
	return nil
}

// Fetch executes q and materializes each row into a T through shape.
func Fetch[T any](ctx context.Context, e *Engine, q *queryir.Query, shape *materialize.Shape[T]) (materialize.Results[T], error) {
	res, err := e.Execute(ctx, q)
	if err != nil {
		return materialize.Results[T]{}, err
	}
	return shape.Materialize(res.Rows), nil
}
