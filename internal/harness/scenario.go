package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/roach88/linqsql/internal/querydoc"
)

// Scenario defines one translation test: a query document and what it must
// compile or evaluate to.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is an optional name mapping file. Without one, entity and
	// member names are used unchanged.
	Schema string `yaml:"schema,omitempty"`

	// Seed is an optional SQL script. When set the query is executed
	// against a fresh in-memory SQLite database seeded with it.
	Seed string `yaml:"seed,omitempty"`

	// Query is the query under test.
	Query querydoc.Query `yaml:"query"`

	// Expect lists the assertions on the outcome.
	Expect Expect `yaml:"expect"`
}

// Expect specifies the expected outcome of a scenario.
type Expect struct {
	// SQL is the exact expected statement.
	SQL string `yaml:"sql,omitempty"`

	// Params are the expected parameter values in placeholder order.
	// A nil list is not checked; an empty list asserts no parameters.
	Params []any `yaml:"params,omitempty"`

	// Error is the expected error category: unsupported, resolution,
	// validation or transport.
	Error string `yaml:"error,omitempty"`

	// ErrorContains is a substring the error message must contain.
	ErrorContains string `yaml:"error_contains,omitempty"`

	// Rows are the expected rows in order. Each row is a subset match.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// RowCount is the expected number of rows.
	RowCount *int `yaml:"row_count,omitempty"`
}

// Error categories.
const (
	ErrorUnsupported = "unsupported"
	ErrorResolution  = "resolution"
	ErrorValidation  = "validation"
	ErrorTransport   = "transport"
)

// validName keeps scenario names usable as golden file names.
var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Schema and seed paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Schema = resolvePath(base, scenario.Schema)
	scenario.Seed = resolvePath(base, scenario.Seed)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string)
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, path)
		}
		names[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if !validName.MatchString(s.Name) {
		return fmt.Errorf("name %q must be lower-case letters, digits and underscores", s.Name)
	}

	if s.Description == "" {
		return errors.New("description is required")
	}

	if s.Query.From.Entity == "" {
		return errors.New("query.from.entity is required")
	}

	for _, path := range []string{s.Schema, s.Seed} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}

	return validateExpect(s)
}

// validateExpect rejects expectations that assert nothing or contradict
// each other.
func validateExpect(s *Scenario) error {
	e := s.Expect
	wantsError := e.Error != "" || e.ErrorContains != ""
	wantsRows := e.Rows != nil || e.RowCount != nil

	if !wantsError && e.SQL == "" && e.Params == nil && !wantsRows {
		return errors.New("expect must assert at least one of sql, params, error, rows or row_count")
	}

	switch e.Error {
	case "", ErrorUnsupported, ErrorResolution, ErrorValidation, ErrorTransport:
	default:
		return fmt.Errorf("expect.error: unknown category %q", e.Error)
	}

	if wantsError && wantsRows {
		return errors.New("expect.error cannot be combined with rows or row_count")
	}
	if wantsRows && s.Seed == "" {
		return errors.New("rows and row_count need a seed script")
	}
	if e.RowCount != nil && *e.RowCount < 0 {
		return fmt.Errorf("expect.row_count must not be negative, got %d", *e.RowCount)
	}
	if e.RowCount != nil && e.Rows != nil && *e.RowCount != len(e.Rows) {
		return fmt.Errorf("expect.row_count is %d but %d rows are listed", *e.RowCount, len(e.Rows))
	}

	return nil
}
