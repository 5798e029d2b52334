package queryir

// Source is a named range variable over a logical entity type.
//
// Name is the variable as written in the host query (for example "c" in
// "from c in Customers"). Entity is the logical type name the schema
// resolver maps to a physical table.
type Source struct {
	Name   string
	Entity string
}

// Query is one complete query.
//
// Clauses are compiled in a fixed order regardless of how they were
// declared: Select, From, Additional and Joins, Where, OrderBy, then
// ResultOperators.
type Query struct {
	// From is the main source. Required.
	From Source

	// Additional lists further sources cross-joined with From.
	Additional []Source

	// Joins lists inner joins in declaration order.
	Joins []Join

	// Where predicates are conjoined in registration order.
	Where []Expr

	// OrderBy groups in registration order. A later group sorts before
	// every earlier group.
	OrderBy []OrderGroup

	// Select is the projection. A nil Select projects the main source.
	Select Expr

	// ResultOperators are applied in registration order.
	ResultOperators []ResultOperator
}

// Join is an inner join of Source on OuterKey = InnerKey.
//
// A non-empty Into marks a group join ("join ... into g"), which the SQL
// compiler rejects.
type Join struct {
	Source   Source
	OuterKey Expr
	InnerKey Expr
	Into     string
}

// IsGroupJoin reports whether the join collects matches into a group.
func (j Join) IsGroupJoin() bool {
	return j.Into != ""
}

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// Ordering is one sort key.
type Ordering struct {
	Expr      Expr
	Direction Direction
}

// OrderGroup is the list of keys registered by one ordering operation
// (an OrderBy followed by its ThenBy keys).
type OrderGroup []Ordering

// Sources returns every source the query declares, main source first.
func (q *Query) Sources() []Source {
	sources := make([]Source, 0, 1+len(q.Additional)+len(q.Joins))
	sources = append(sources, q.From)
	sources = append(sources, q.Additional...)
	for _, j := range q.Joins {
		sources = append(sources, j.Source)
	}
	return sources
}
