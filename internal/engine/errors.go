package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a failure while running a query. It wraps the underlying
// cause, so the compiler's error helpers (querysql.IsUnsupported and
// friends) still see through it.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// TraceID identifies the execution, empty for compile-only calls.
	TraceID string

	// SQL is the compiled statement, when compilation got that far.
	SQL string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeCompileFailed indicates the query could not be compiled.
	ErrCodeCompileFailed RuntimeErrorCode = "COMPILE_FAILED"

	// ErrCodeTransportFailed indicates the database rejected or lost the query.
	ErrCodeTransportFailed RuntimeErrorCode = "TRANSPORT_FAILED"

	// ErrCodeNoTransport indicates execution was requested on a compile-only engine.
	ErrCodeNoTransport RuntimeErrorCode = "NO_TRANSPORT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.TraceID != "" {
		msg += fmt.Sprintf(" (trace=%s)", e.TraceID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsCompileError returns true if err is a compile failure.
// Uses errors.As to handle wrapped errors.
func IsCompileError(err error) bool {
	return hasCode(err, ErrCodeCompileFailed)
}

// IsTransportError returns true if err came from the database.
func IsTransportError(err error) bool {
	return hasCode(err, ErrCodeTransportFailed)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func newCompileError(traceID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCompileFailed,
		Message: "query could not be compiled",
		TraceID: traceID,
		Err:     err,
	}
}

func newTransportError(traceID, sql string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeTransportFailed,
		Message: "query execution failed",
		TraceID: traceID,
		SQL:     sql,
		Err:     err,
	}
}
