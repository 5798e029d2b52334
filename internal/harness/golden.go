package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/linqsql/internal/ir"
)

// Snapshot captures what a scenario compiled and evaluated to.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	SQL          string
	Params       []ir.Value
	Rows         []map[string]ir.Value
	Error        string
}

// NewSnapshot builds the snapshot of result. Errors are recorded by
// category only, so message wording can change without churning goldens.
func NewSnapshot(name string, result *Result) Snapshot {
	s := Snapshot{ScenarioName: name, SQL: result.Command.SQL}
	for _, p := range result.Command.Params {
		s.Params = append(s.Params, p.Value)
	}
	if result.Rows != nil {
		s.Rows = make([]map[string]ir.Value, len(result.Rows))
		for i, rec := range result.Rows {
			s.Rows[i] = rec.Map()
		}
	}
	s.Error = ErrorCategory(result.Err)
	return s
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{
		"scenario_name": s.ScenarioName,
	}
	if s.SQL != "" {
		params := make([]any, len(s.Params))
		for i, p := range s.Params {
			params[i] = p
		}
		m["sql"] = s.SQL
		m["params"] = params
	}
	if s.Rows != nil {
		rows := make([]any, len(s.Rows))
		for i, r := range s.Rows {
			rows[i] = r
		}
		m["rows"] = rows
	}
	if s.Error != "" {
		m["error"] = s.Error
	}
	return m
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
