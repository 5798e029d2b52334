package querysql

import (
	"errors"
	"fmt"

	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/schema"
)

// Construct names the kind of AST element an UnsupportedOperationError is
// about.
type Construct string

const (
	ConstructMethod         Construct = "method"
	ConstructResultOperator Construct = "result operator"
	ConstructJoin           Construct = "join"
	ConstructGrouping       Construct = "grouping"
	ConstructMemberAccess   Construct = "member access"
	ConstructExpression     Construct = "expression"
)

// UnsupportedOperationError reports an AST element with no SQL translation.
// It aborts the whole compile.
type UnsupportedOperationError struct {
	Construct Construct
	Name      string

	// Detail is optional extra context, such as an arity mismatch.
	Detail string
}

func (e *UnsupportedOperationError) Error() string {
	msg := fmt.Sprintf("unsupported %s %q", e.Construct, e.Name)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func unsupported(construct Construct, name string) error {
	return &UnsupportedOperationError{Construct: construct, Name: name}
}

// IsUnsupported reports whether err is or wraps an UnsupportedOperationError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedOperationError
	return errors.As(err, &ue)
}

// IsResolution reports whether err is or wraps a schema.ResolutionError.
func IsResolution(err error) bool {
	return schema.IsResolutionError(err)
}

// IsValidation reports whether err is or wraps a queryir.ValidationError.
func IsValidation(err error) bool {
	var ve queryir.ValidationError
	return errors.As(err, &ve)
}

// ValidationErrors extracts every queryir.ValidationError joined into err.
func ValidationErrors(err error) []queryir.ValidationError {
	var out []queryir.ValidationError
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case nil:
		case queryir.ValidationError:
			out = append(out, x)
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return out
}

func invalidQuery(errs []queryir.ValidationError) error {
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return fmt.Errorf("invalid query: %w", errors.Join(joined...))
}
