package harness

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/linqsql/internal/engine"
	"github.com/roach88/linqsql/internal/querydoc"
	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/schema"
	"github.com/roach88/linqsql/internal/store"
)

// Run executes a scenario and returns the result.
//
// A scenario with a seed runs in a fresh in-memory database for isolation.
// The returned error covers problems with the scenario itself (unreadable
// files, malformed query document, failed seed); translation failures are
// recorded in Result.Err and checked against the expectations.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for query execution.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	q, err := querydoc.Build(&scenario.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var resolver schema.Resolver = schema.Identity{}
	if scenario.Schema != "" {
		m, err := schema.LoadMapping(scenario.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema: %w", err)
		}
		resolver = m
	}

	result := NewResult()
	if scenario.Seed == "" {
		eng := engine.New(resolver)
		result.Command, result.Err = eng.Compile(q)
	} else if err := execute(ctx, scenario, resolver, q, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}
	return result, nil
}

// execute seeds an in-memory database and runs q against it. Trace ids
// are fixed to the scenario name so logs are reproducible.
func execute(ctx context.Context, scenario *Scenario, resolver schema.Resolver, q *queryir.Query, result *Result) error {
	script, err := os.ReadFile(scenario.Seed)
	if err != nil {
		return fmt.Errorf("failed to read seed: %w", err)
	}

	db, err := store.OpenSQLite(":memory:")
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer db.Close()

	eng := engine.New(resolver,
		engine.WithTransport(db),
		engine.WithTraceGenerator(engine.NewFixedGenerator(scenario.Name)))

	if err := eng.Exec(ctx, string(script)); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	res, err := eng.Execute(ctx, q)
	result.Command, result.Err = res.Command, err
	if err == nil {
		result.Rows = res.Records().Slice()
	}
	return nil
}
