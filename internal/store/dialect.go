package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnsupportedDialect is matched by every DialectError.
var ErrUnsupportedDialect = errors.New("unsupported by database dialect")

// DialectError reports a compiled construct the target database cannot
// parse. The command is rejected before it is sent.
type DialectError struct {
	Driver    string
	Construct string
}

func (e *DialectError) Error() string {
	return fmt.Sprintf("%s does not support %s; use the %s driver", e.Driver, e.Construct, DriverPostgres)
}

func (e *DialectError) Is(target error) bool {
	return target == ErrUnsupportedDialect
}

type dialectRule struct {
	pattern   *regexp.Regexp
	construct string
}

// sqliteGaps lists the compiled forms SQLite rejects. SQLite only accepts
// OFFSET after LIMIT, and the compiler always writes OFFSET first.
var sqliteGaps = []dialectRule{
	{regexp.MustCompile(`\bOFFSET [0-9]+`), "OFFSET before or without LIMIT (Skip)"},
	{regexp.MustCompile(`\bREVERSE\(`), "REVERSE (Reverse)"},
	{regexp.MustCompile(`\bSUBSTRING\(`), "SUBSTRING ... FROM ... FOR (Substring)"},
	{regexp.MustCompile(`\bTRIM\((both|leading|trailing)\b`), "TRIM with a side (Trim, TrimStart, TrimEnd)"},
	{regexp.MustCompile(`#`), "the # operator (ExclusiveOr)"},
}

// checkSQLite returns a DialectError for the first construct in query that
// SQLite cannot run.
func checkSQLite(query string) error {
	bare := maskQuoted(query)
	for _, rule := range sqliteGaps {
		if rule.pattern.MatchString(bare) {
			return &DialectError{Driver: DriverSQLite, Construct: rule.construct}
		}
	}
	return nil
}

// maskQuoted blanks quoted identifiers and string literals so their
// contents never match a rule.
func maskQuoted(query string) string {
	var sb strings.Builder
	sb.Grow(len(query))
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				sb.WriteRune(r)
			} else {
				sb.WriteByte('_')
			}
		case r == '"' || r == '\'':
			quote = r
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
