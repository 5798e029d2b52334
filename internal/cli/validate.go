package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/linqsql/internal/engine"
	"github.com/roach88/linqsql/internal/querydoc"
	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/schema"
)

// ValidationResult holds validation results for every document checked.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// FileValidation is the outcome for one query document.
type FileValidation struct {
	File   string            `json:"file"`
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in a document.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Check query documents without printing SQL",
		Long: `Check query documents for syntax errors, structural problems and
constructs that have no SQL translation.

Each path may be a document or a directory, which is searched for
.yaml, .yml, .json and .cue files. Every structural problem in a
document is reported, not only the first.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	resolver, err := opts.schemaResolver()
	if err != nil {
		return formatter.fail(err, "")
	}

	files, err := findQueryFiles(paths)
	if err != nil {
		return formatter.fail(err, "")
	}
	formatter.VerboseLog("Found %d query document(s)", len(files))

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	invalid := 0
	for _, file := range files {
		fv := validateFile(file, resolver)
		if !fv.Valid {
			result.Valid = false
			invalid++
		}
		result.Files = append(result.Files, fv)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d document(s) invalid", invalid, len(files)))
	}
	return nil
}

// validateFile loads, validates and trial-compiles one document.
func validateFile(file string, resolver schema.Resolver) FileValidation {
	fv := FileValidation{File: file, Valid: true}

	q, err := loadQuery(file)
	if err != nil {
		fv.Valid = false
		fv.Errors = []ValidationIssue{issueFor(err)}
		return fv
	}

	if verrs := queryir.Validate(q); len(verrs) > 0 {
		fv.Valid = false
		for _, ve := range verrs {
			fv.Errors = append(fv.Errors, ValidationIssue{
				Code:    ve.Code,
				Field:   ve.Field,
				Message: ve.Message,
			})
		}
		return fv
	}

	if _, err := engine.New(resolver).Compile(q); err != nil {
		fv.Valid = false
		fv.Errors = []ValidationIssue{issueFor(err)}
	}
	return fv
}

func issueFor(err error) ValidationIssue {
	issue := ValidationIssue{Code: ErrorCode(err), Message: err.Error()}
	var docErr *querydoc.DocumentError
	if errors.As(err, &docErr) {
		issue.Field = docErr.Path
		issue.Message = docErr.Message
		if docErr.Pos.IsValid() {
			issue.Line = docErr.Pos.Line()
		}
	}
	return issue
}

// findQueryFiles expands directories into the query documents they
// contain. Files named explicitly are kept whatever their extension, so
// an unknown extension is reported rather than skipped.
func findQueryFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &codedError{code: ErrCodeNotFound, err: fmt.Errorf("path not found: %s", path)}
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, err := querydoc.FormatFromPath(p); err == nil {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error scanning directory: %w", err)
		}
	}

	if len(files) == 0 {
		return nil, &codedError{code: ErrCodeNotFound, err: errors.New("no query documents found")}
	}
	return files, nil
}

// outputValidateText prints one line per document and its issues.
func outputValidateText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "%s %s\n", passMark, fv.File)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", failMark, fv.File)
		for _, issue := range fv.Errors {
			location := ""
			if issue.Line > 0 {
				location = fmt.Sprintf("line %d: ", issue.Line)
			}
			if issue.Field != "" {
				location += issue.Field + ": "
			}
			fmt.Fprintf(w, "  [%s] %s%s\n", issue.Code, location, issue.Message)
		}
	}

	if result.Valid {
		fmt.Fprintf(w, "\n%s All %d document(s) valid\n", passMark, len(result.Files))
	}
}
