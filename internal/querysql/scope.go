package querysql

import (
	"fmt"

	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/schema"
)

// binding is a source visible to expressions, with its physical table.
type binding struct {
	source queryir.Source
	table  string

	// alias is set when the table was already visible under another source.
	alias string
}

// label is the name columns of this source are qualified with.
func (b binding) label() string {
	if b.alias != "" {
		return b.alias
	}
	return b.table
}

// fromItem renders the source for a FROM or JOIN clause.
func (b binding) fromItem() string {
	if b.alias != "" {
		return schema.Quote(b.table) + " AS " + schema.Quote(b.alias)
	}
	return schema.Quote(b.table)
}

// scope is the set of sources one query declares, chained to the scopes of
// the queries it is nested in. Columns are qualified whenever more than one
// source is visible.
type scope struct {
	parent   *scope
	bindings []binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent}
}

// declare adds src, aliasing it when its table is already visible.
func (s *scope) declare(src queryir.Source, resolver schema.Resolver) (binding, error) {
	table, err := resolver.TableName(src.Entity)
	if err != nil {
		return binding{}, fmt.Errorf("resolve table for %q: %w", src.Entity, err)
	}

	b := binding{source: src, table: table}
	if s.labelInUse(table) {
		b.alias = src.Name
		for n := s.visible(); b.alias == "" || s.labelInUse(b.alias); n++ {
			b.alias = fmt.Sprintf("%s%d", table, n)
		}
	}
	s.bindings = append(s.bindings, b)
	return b, nil
}

func (s *scope) labelInUse(label string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		for _, b := range sc.bindings {
			if b.label() == label || b.table == label {
				return true
			}
		}
	}
	return false
}

// visible counts the sources visible from s, including enclosing queries.
func (s *scope) visible() int {
	n := 0
	for sc := s; sc != nil; sc = sc.parent {
		n += len(sc.bindings)
	}
	return n
}

// qualified reports whether column references must carry a qualifier.
func (s *scope) qualified() bool {
	return s.visible() > 1
}

// lookup finds the innermost binding for src. Sources match by range
// variable name, or by entity when the reference has no name.
func (s *scope) lookup(src queryir.Source) (binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		for _, b := range sc.bindings {
			if src.Name != "" && b.source.Name == src.Name {
				return b, true
			}
			if src.Name == "" && b.source.Entity == src.Entity {
				return b, true
			}
		}
	}
	return binding{}, false
}

// resolve returns the binding for src. A reference to a source no enclosing
// query declares is labelled with its table.
func (s *scope) resolve(src queryir.Source, resolver schema.Resolver) (binding, error) {
	if b, ok := s.lookup(src); ok {
		return b, nil
	}
	table, err := resolver.TableName(src.Entity)
	if err != nil {
		return binding{}, fmt.Errorf("resolve table for %q: %w", src.Entity, err)
	}
	return binding{source: src, table: table}, nil
}
