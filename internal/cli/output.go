package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/linqsql/internal/engine"
	"github.com/roach88/linqsql/internal/querydoc"
	"github.com/roach88/linqsql/internal/querysql"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query rejected or scenarios failed
	ExitCommandError = 2 // Command error (missing files, bad config, database unreachable)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric     = "E000"
	ErrCodeNotFound    = "E001" // input file or directory missing
	ErrCodeDocument    = "E002" // malformed query document
	ErrCodeValidation  = "E003" // structurally invalid query
	ErrCodeUnsupported = "E004" // construct with no SQL translation
	ErrCodeResolution  = "E005" // name missing from the schema mapping
	ErrCodeTransport   = "E006" // database rejected or lost the query
	ErrCodeConfig      = "E007" // invalid configuration
	ErrCodeWriteFailed = "E008" // output file could not be written
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// codedError attaches a CLI error code to a failure that carries no type
// of its own, such as a missing file or a YAML syntax error.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

// ErrorCode maps an error from loading, compiling or running a query to
// its CLI error code.
func ErrorCode(err error) string {
	var coded *codedError
	var docErr *querydoc.DocumentError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &coded):
		return coded.code
	case errors.As(err, &docErr):
		return ErrCodeDocument
	case querysql.IsUnsupported(err):
		return ErrCodeUnsupported
	case querysql.IsResolution(err):
		return ErrCodeResolution
	case querysql.IsValidation(err):
		return ErrCodeValidation
	case engine.IsTransportError(err):
		return ErrCodeTransport
	default:
		return ErrCodeGeneric
	}
}

// exitCodeFor picks the exit code for a failed query: translation
// failures reject the query, anything else is a command error.
func exitCodeFor(err error) int {
	switch ErrorCode(err) {
	case ErrCodeDocument, ErrCodeValidation, ErrCodeUnsupported, ErrCodeResolution:
		return ExitFailure
	default:
		return ExitCommandError
	}
}

var (
	passMark = color.New(color.FgGreen, color.Bold).Sprint("✓")
	failMark = color.New(color.FgRed, color.Bold).Sprint("✗")
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // correlates with log lines
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	return f.SuccessWithTrace(data, "")
}

// SuccessWithTrace is Success with a trace id in the JSON response.
func (f *OutputFormatter) SuccessWithTrace(data any, traceID string) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			TraceID: traceID,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	return f.ErrorWithTrace(code, message, details, "")
}

// ErrorWithTrace is Error with a trace id in the JSON response.
func (f *OutputFormatter) ErrorWithTrace(code, message string, details any, traceID string) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			TraceID: traceID,
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "%s Error [%s]: %s\n", failMark, code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// fail reports err through f and returns the matching ExitError.
func (f *OutputFormatter) fail(err error, traceID string) error {
	code := ErrorCode(err)
	_ = f.ErrorWithTrace(code, err.Error(), nil, traceID)
	return WrapExitError(exitCodeFor(err), code, err)
}
