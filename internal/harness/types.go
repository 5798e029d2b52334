package harness

import (
	"github.com/roach88/linqsql/internal/materialize"
	"github.com/roach88/linqsql/internal/querysql"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matched.
	Pass bool

	// Command is the compiled statement. It is the zero Command when
	// compilation failed.
	Command querysql.Command

	// Rows are the materialized rows. Nil unless the scenario has a seed
	// and the query executed.
	Rows []materialize.Record

	// Err is the compile or execution error, if any.
	Err error

	// Errors contains expectation failures.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
