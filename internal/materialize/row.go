package materialize

// Column is one column of a raw row, as reported by the driver.
type Column struct {
	Name  string
	Value any
}

// Row is an ordered list of columns.
type Row []Column

// Get returns the value of the first column called name.
func (r Row) Get(name string) (any, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Names returns the column names of r in order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}
