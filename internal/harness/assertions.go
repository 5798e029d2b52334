package harness

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/linqsql/internal/engine"
	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/materialize"
	"github.com/roach88/linqsql/internal/querysql"
)

// Assertion types, used to label failures.
const (
	AssertSQL      = "sql"
	AssertParams   = "params"
	AssertError    = "error"
	AssertRows     = "rows"
	AssertRowCount = "row_count"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Compiled statement, when there is one
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.SQL != "" {
		fmt.Fprintf(&buf, "\nCompiled SQL:\n  %s\n", e.SQL)
	}

	return buf.String()
}

// EvaluateExpectations checks result against expect.
// Returns a list of error messages for failed assertions.
// Returns empty slice if all assertions pass.
//
// An unexpected error fails the scenario on its own: the remaining
// assertions would only restate it.
func EvaluateExpectations(result *Result, expect Expect) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if expect.Error != "" || expect.ErrorContains != "" {
		add(assertError(result, expect))
	} else if result.Err != nil {
		return []string{(&AssertionError{
			Type:     AssertError,
			Expected: "no error",
			Actual:   result.Err.Error(),
			SQL:      result.Command.SQL,
		}).Error()}
	}

	if expect.SQL != "" {
		add(assertSQL(result.Command, expect.SQL))
	}
	if expect.Params != nil {
		add(assertParams(result.Command, expect.Params))
	}
	if expect.RowCount != nil {
		add(assertRowCount(result, *expect.RowCount))
	}
	if expect.Rows != nil {
		add(assertRows(result, expect.Rows))
	}

	return errs
}

// ErrorCategory names the kind of translation or execution failure err
// is, or returns "" for nil and "other" for anything unrecognized.
func ErrorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case querysql.IsUnsupported(err):
		return ErrorUnsupported
	case querysql.IsResolution(err):
		return ErrorResolution
	case querysql.IsValidation(err):
		return ErrorValidation
	case engine.IsTransportError(err):
		return ErrorTransport
	default:
		return "other"
	}
}

// assertError checks the error category and message.
func assertError(result *Result, expect Expect) error {
	want := expect.Error
	if want == "" {
		want = "an error"
	}
	if result.Err == nil {
		return &AssertionError{
			Type:     AssertError,
			Expected: want,
			Actual:   "no error",
			SQL:      result.Command.SQL,
		}
	}

	if got := ErrorCategory(result.Err); expect.Error != "" && got != expect.Error {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("%s error", expect.Error),
			Actual:   fmt.Sprintf("%s error: %v", got, result.Err),
		}
	}

	if expect.ErrorContains != "" && !strings.Contains(result.Err.Error(), expect.ErrorContains) {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("message containing %q", expect.ErrorContains),
			Actual:   result.Err.Error(),
		}
	}

	return nil
}

// assertSQL checks the statement text exactly.
func assertSQL(cmd querysql.Command, want string) error {
	if cmd.SQL == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertSQL,
		Expected: want,
		Actual:   cmd.SQL,
	}
}

// assertParams checks the parameter values in placeholder order.
func assertParams(cmd querysql.Command, want []any) error {
	got := make([]any, len(cmd.Params))
	for i, p := range cmd.Params {
		got[i] = p.Value
	}

	if len(got) != len(want) {
		return &AssertionError{
			Type:     AssertParams,
			Expected: fmt.Sprintf("%d parameters %v", len(want), want),
			Actual:   fmt.Sprintf("%d parameters %v", len(got), got),
			SQL:      cmd.SQL,
		}
	}

	for i := range want {
		if !valuesEqual(got[i], want[i]) {
			return &AssertionError{
				Type:     AssertParams,
				Expected: fmt.Sprintf("@p%d = %v", i, want[i]),
				Actual:   fmt.Sprintf("@p%d = %v", i, got[i]),
				SQL:      cmd.SQL,
			}
		}
	}
	return nil
}

func assertRowCount(result *Result, want int) error {
	if len(result.Rows) == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertRowCount,
		Expected: fmt.Sprintf("%d rows", want),
		Actual:   fmt.Sprintf("%d rows", len(result.Rows)),
		SQL:      result.Command.SQL,
	}
}

// assertRows checks rows in order. Each expected row is a subset match:
// only the columns it lists are compared.
func assertRows(result *Result, want []map[string]any) error {
	if len(result.Rows) != len(want) {
		return &AssertionError{
			Type:     AssertRows,
			Expected: fmt.Sprintf("%d rows", len(want)),
			Actual:   fmt.Sprintf("%d rows", len(result.Rows)),
			SQL:      result.Command.SQL,
		}
	}

	for i, expected := range want {
		if msg := matchRow(result.Rows[i], expected); msg != "" {
			return &AssertionError{
				Type:     AssertRows,
				Expected: fmt.Sprintf("row %d with %v", i, expected),
				Actual:   fmt.Sprintf("row %d: %s", i, msg),
				SQL:      result.Command.SQL,
			}
		}
	}
	return nil
}

// matchRow returns "" when rec satisfies expected, or a description of
// the first mismatch. Columns are checked in sorted order so the message
// is stable.
func matchRow(rec materialize.Record, expected map[string]any) string {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		got, ok := rec.Get(k)
		if !ok {
			return fmt.Sprintf("no column %q (have %v)", k, rec.Names())
		}
		if !valuesEqual(got, expected[k]) {
			return fmt.Sprintf("%s = %v, want %v", k, got, expected[k])
		}
	}
	return ""
}

// valuesEqual compares an actual value with a value decoded from YAML by
// their canonical JSON encodings. This equates ir.Int(5) with 5, a whole
// float with an int, and a decimal with its string form.
func valuesEqual(actual, expected any) bool {
	a, err := ir.MarshalCanonical(actual)
	if err != nil {
		return false
	}
	e, err := ir.MarshalCanonical(expected)
	if err != nil {
		return false
	}
	return bytes.Equal(a, e)
}
