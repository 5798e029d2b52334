package materialize

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/schema"
)

// Field describes one target field: the property it maps and how to assign
// a converted value to it.
type Field[T any] struct {
	name   string
	column string
	target string
	assign func(*T, ir.Value) error
}

// Name returns the property name of f.
func (f Field[T]) Name() string {
	return f.name
}

// Column pins the physical column name, skipping schema resolution. Use it
// for projection aliases, which are not schema names.
func (f Field[T]) Column(column string) Field[T] {
	f.column = column
	return f
}

func newField[T, V any](name, target string, convert func(ir.Value) (V, error), set func(*T, V)) Field[T] {
	return Field[T]{
		name:   name,
		target: target,
		assign: func(dst *T, v ir.Value) error {
			out, err := convert(v)
			if err != nil {
				return err
			}
			set(dst, out)
			return nil
		},
	}
}

// String maps property name to a string field.
func String[T any](name string, set func(*T, string)) Field[T] {
	return newField(name, "string", toString, set)
}

// Int64 maps property name to an int64 field.
func Int64[T any](name string, set func(*T, int64)) Field[T] {
	return newField(name, "int64", toInt64, set)
}

// Float64 maps property name to a float64 field.
func Float64[T any](name string, set func(*T, float64)) Field[T] {
	return newField(name, "float64", toFloat64, set)
}

// Bool maps property name to a bool field.
func Bool[T any](name string, set func(*T, bool)) Field[T] {
	return newField(name, "bool", toBool, set)
}

// Time maps property name to a time.Time field.
func Time[T any](name string, set func(*T, time.Time)) Field[T] {
	return newField(name, "time", toTime, set)
}

// Decimal maps property name to a decimal field.
func Decimal[T any](name string, set func(*T, decimal.Decimal)) Field[T] {
	return newField(name, "decimal", toDecimal, set)
}

// UUID maps property name to a uuid field.
func UUID[T any](name string, set func(*T, uuid.UUID)) Field[T] {
	return newField(name, "uuid", toUUID, set)
}

// Bytes maps property name to a byte slice field.
func Bytes[T any](name string, set func(*T, []byte)) Field[T] {
	return newField(name, "bytes", toBytes, set)
}

// Value maps property name to an ir.Value field. NULL is assigned as
// ir.Null rather than skipped.
func Value[T any](name string, set func(*T, ir.Value)) Field[T] {
	return Field[T]{
		name:   name,
		target: "value",
		assign: func(dst *T, v ir.Value) error {
			set(dst, v)
			return nil
		},
	}
}

// Shape is the mapping table for one target type. It is immutable once
// built and safe for concurrent use.
type Shape[T any] struct {
	fields []Field[T]

	// exact and folded index fields by column name.
	exact  map[string]int
	folded map[string]int

	newT func() T
}

// NewShape builds a shape, resolving each field's column name through
// resolver (nil means identity). Resolution failures are returned.
func NewShape[T any](resolver schema.Resolver, fields ...Field[T]) (*Shape[T], error) {
	if resolver == nil {
		resolver = schema.Identity{}
	}

	s := &Shape[T]{
		fields: make([]Field[T], len(fields)),
		exact:  make(map[string]int, len(fields)),
		folded: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.assign == nil {
			return nil, fmt.Errorf("field %d has no setter", i)
		}
		if f.column == "" {
			column, err := resolver.ColumnName(f.name)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.name, err)
			}
			f.column = column
		}
		if _, dup := s.exact[f.column]; dup {
			return nil, fmt.Errorf("field %q: column %q is mapped twice", f.name, f.column)
		}
		s.fields[i] = f
		s.exact[f.column] = i
		if _, taken := s.folded[fold(f.column)]; !taken {
			s.folded[fold(f.column)] = i
		}
	}
	return s, nil
}

// Columns returns the resolved column name of every field in order.
func (s *Shape[T]) Columns() []string {
	columns := make([]string, len(s.fields))
	for i, f := range s.fields {
		columns[i] = f.column
	}
	return columns
}

// fold normalizes a column name for case-insensitive matching. PostgreSQL
// folds unquoted aliases to lower case.
func fold(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}

// field finds the field for a column: exact name first, then folded.
func (s *Shape[T]) field(column string) (Field[T], bool) {
	if i, ok := s.exact[column]; ok {
		return s.fields[i], true
	}
	if i, ok := s.folded[fold(column)]; ok {
		return s.fields[i], true
	}
	return Field[T]{}, false
}

// One materializes a single row.
func (s *Shape[T]) One(row Row) T {
	var out T
	if s.newT != nil {
		out = s.newT()
	}

	for _, col := range row {
		f, ok := s.field(col.Name)
		if !ok {
			continue
		}
		if err := f.assign(&out, ir.FromDriver(col.Value)); err != nil {
			if errors.Is(err, errNull) {
				continue
			}
			slog.Debug("conversion skipped",
				"field", f.name,
				"column", col.Name,
				"target", f.target,
				"value_type", fmt.Sprintf("%T", col.Value),
				"error", err)
		}
	}
	return out
}

// Materialize converts rows in order, one value per row.
func (s *Shape[T]) Materialize(rows []Row) Results[T] {
	values := make([]T, len(rows))
	for i, row := range rows {
		values[i] = s.One(row)
	}
	return Results[T]{values: values}
}

// Results is an ordered, re-iterable sequence of materialized values.
type Results[T any] struct {
	values []T
}

// All iterates the results in row order. It may be called any number of
// times.
func (r Results[T]) All() iter.Seq[T] {
	return slices.Values(r.values)
}

// Slice returns a copy of the results.
func (r Results[T]) Slice() []T {
	return slices.Clone(r.values)
}

// Len returns the number of results.
func (r Results[T]) Len() int {
	return len(r.values)
}
