package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Resolver maps logical names to physical names.
type Resolver interface {
	// TableName returns the physical table for an entity type name.
	TableName(entity string) (string, error)

	// ColumnName returns the physical column for a property name.
	ColumnName(property string) (string, error)
}

// NameKind distinguishes table lookups from column lookups in errors.
type NameKind string

const (
	KindTable  NameKind = "table"
	KindColumn NameKind = "column"
)

// ResolutionError reports a name the resolver has no mapping for.
// It is fatal for the compile that triggered it.
type ResolutionError struct {
	Kind NameKind
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no %s mapping for %q", e.Kind, e.Name)
}

// IsResolutionError reports whether err is or wraps a *ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// Identity returns every name unchanged. It is the default policy.
type Identity struct{}

// TableName implements Resolver.
func (Identity) TableName(entity string) (string, error) {
	if entity == "" {
		return "", &ResolutionError{Kind: KindTable, Name: entity}
	}
	return entity, nil
}

// ColumnName implements Resolver.
func (Identity) ColumnName(property string) (string, error) {
	if property == "" {
		return "", &ResolutionError{Kind: KindColumn, Name: property}
	}
	return property, nil
}

// Quote renders name as a double-quoted identifier. Case is preserved and
// embedded double quotes are doubled.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Qualify renders table.column with both parts quoted.
func Qualify(table, column string) string {
	return Quote(table) + "." + Quote(column)
}
