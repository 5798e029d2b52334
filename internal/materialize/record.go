package materialize

import (
	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/schema"
)

// Record is a dynamically shaped row: ordered field names and values.
// Fields with no matching column hold ir.Null.
type Record struct {
	names  []string
	values []ir.Value
}

// Names returns the field names in order.
func (r Record) Names() []string {
	return r.names
}

// Values returns the field values in order.
func (r Record) Values() []ir.Value {
	return r.values
}

// Get returns the value of field name.
func (r Record) Get(name string) (ir.Value, bool) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map returns the record keyed by field name, for canonical JSON output.
func (r Record) Map() map[string]ir.Value {
	m := make(map[string]ir.Value, len(r.names))
	for i, n := range r.names {
		m[n] = r.values[i]
	}
	return m
}

// Records builds a Shape producing Records with the given field names.
// Field names are resolved to columns through resolver.
func Records(resolver schema.Resolver, names ...string) (*Shape[Record], error) {
	fields := make([]Field[Record], len(names))
	for i, name := range names {
		fields[i] = Value(name, func(r *Record, v ir.Value) {
			r.values[i] = v
		})
	}

	shape, err := NewShape(resolver, fields...)
	if err != nil {
		return nil, err
	}

	fieldNames := append([]string(nil), names...)
	shape.newT = func() Record {
		values := make([]ir.Value, len(fieldNames))
		for i := range values {
			values[i] = ir.Null{}
		}
		return Record{names: fieldNames, values: values}
	}
	return shape, nil
}

// RecordsOf materializes rows as Records named after the columns of each
// row, by position. It is used when the select list is not known ahead of
// time, so duplicate column names (SELECT * over a join) are kept.
func RecordsOf(rows []Row) Results[Record] {
	values := make([]Record, len(rows))
	for i, row := range rows {
		rec := Record{names: row.Names(), values: make([]ir.Value, len(row))}
		for k, col := range row {
			rec.values[k] = ir.FromDriver(col.Value)
		}
		values[i] = rec
	}
	return Results[Record]{values: values}
}
