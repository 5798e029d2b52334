package schema

import (
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// Mapping resolves names through explicit tables.
//
// Unmapped names fall back to identity unless Strict is set. A Mapping must
// not be modified once it is in use; NewMapping copies its inputs.
type Mapping struct {
	tables  map[string]string
	columns map[string]string
	strict  bool
}

// MappingFile is the YAML form of a Mapping.
//
//	strict: true
//	tables:
//	  Customer: customers
//	columns:
//	  ContactName: contact_name
type MappingFile struct {
	// Strict rejects names that have no entry.
	Strict bool `yaml:"strict"`

	// Tables maps entity type names to table names.
	Tables map[string]string `yaml:"tables"`

	// Columns maps property names to column names.
	Columns map[string]string `yaml:"columns"`
}

// NewMapping builds a Mapping from copies of tables and columns.
func NewMapping(tables, columns map[string]string, strict bool) *Mapping {
	m := &Mapping{
		tables:  make(map[string]string, len(tables)),
		columns: make(map[string]string, len(columns)),
		strict:  strict,
	}
	maps.Copy(m.tables, tables)
	maps.Copy(m.columns, columns)
	return m
}

// TableName implements Resolver.
func (m *Mapping) TableName(entity string) (string, error) {
	return m.lookup(m.tables, KindTable, entity)
}

// ColumnName implements Resolver.
func (m *Mapping) ColumnName(property string) (string, error) {
	return m.lookup(m.columns, KindColumn, property)
}

func (m *Mapping) lookup(names map[string]string, kind NameKind, name string) (string, error) {
	if physical, ok := names[name]; ok && physical != "" {
		return physical, nil
	}
	if m.strict || name == "" {
		return "", &ResolutionError{Kind: kind, Name: name}
	}
	return name, nil
}

// ParseMapping decodes a YAML mapping document.
func ParseMapping(data []byte) (*Mapping, error) {
	var f MappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema mapping: %w", err)
	}
	for entity, table := range f.Tables {
		if table == "" {
			return nil, fmt.Errorf("parse schema mapping: table for %q is empty", entity)
		}
	}
	for property, column := range f.Columns {
		if column == "" {
			return nil, fmt.Errorf("parse schema mapping: column for %q is empty", property)
		}
	}
	return NewMapping(f.Tables, f.Columns, f.Strict), nil
}

// LoadMapping reads a YAML mapping file from path.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema mapping: %w", err)
	}
	return ParseMapping(data)
}
