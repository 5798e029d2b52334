package querydoc

// Query is one query document.
type Query struct {
	From            Source     `json:"from" yaml:"from"`
	Additional      []Source   `json:"additional,omitempty" yaml:"additional,omitempty"`
	Joins           []Join     `json:"joins,omitempty" yaml:"joins,omitempty"`
	Where           []*Expr    `json:"where,omitempty" yaml:"where,omitempty"`
	OrderBy         [][]Order  `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	Select          *Expr      `json:"select,omitempty" yaml:"select,omitempty"`
	ResultOperators []Operator `json:"result_operators,omitempty" yaml:"result_operators,omitempty"`
}

// Source declares a range variable.
type Source struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Entity string `json:"entity" yaml:"entity"`
}

// Join is an inner join. Into marks a group join.
type Join struct {
	Source Source `json:"source" yaml:"source"`
	Outer  *Expr  `json:"outer" yaml:"outer"`
	Inner  *Expr  `json:"inner" yaml:"inner"`
	Into   string `json:"into,omitempty" yaml:"into,omitempty"`
}

// Order is one sort key. Dir is "asc" (default) or "desc".
type Order struct {
	By  *Expr  `json:"by" yaml:"by"`
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Operator is a result operator. N is used by Take and Skip, Query by the
// set operators and Predicate by Any and All.
type Operator struct {
	Op        string `json:"op" yaml:"op"`
	N         int64  `json:"n,omitempty" yaml:"n,omitempty"`
	Query     *Query `json:"query,omitempty" yaml:"query,omitempty"`
	Predicate *Expr  `json:"predicate,omitempty" yaml:"predicate,omitempty"`
}

// Expr is an expression node. Exactly one of the discriminating keys
// (Const/Null, Member, Op, Not, Call, If, New, Query, Ref) must be set.
type Expr struct {
	// Literal. Type forces decimal, float, time, uuid or bytes; otherwise
	// the kind follows the document value.
	Const any    `json:"const,omitempty" yaml:"const,omitempty"`
	Null  bool   `json:"null,omitempty" yaml:"null,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`

	// Member access: Member of the range variable Source, or of the
	// expression On.
	Member string `json:"member,omitempty" yaml:"member,omitempty"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	On     *Expr  `json:"on,omitempty" yaml:"on,omitempty"`
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Binary operator, as a symbol ("==") or name ("Equal").
	Op    string `json:"op,omitempty" yaml:"op,omitempty"`
	Left  *Expr  `json:"left,omitempty" yaml:"left,omitempty"`
	Right *Expr  `json:"right,omitempty" yaml:"right,omitempty"`

	Not *Expr `json:"not,omitempty" yaml:"not,omitempty"`

	// Method call. Receiver is omitted for static calls.
	Call     string  `json:"call,omitempty" yaml:"call,omitempty"`
	Receiver *Expr   `json:"receiver,omitempty" yaml:"receiver,omitempty"`
	Args     []*Expr `json:"args,omitempty" yaml:"args,omitempty"`

	// Conditional.
	If   *Expr `json:"if,omitempty" yaml:"if,omitempty"`
	Then *Expr `json:"then,omitempty" yaml:"then,omitempty"`
	Else *Expr `json:"else,omitempty" yaml:"else,omitempty"`

	New []Field `json:"new,omitempty" yaml:"new,omitempty"`

	// Subquery.
	Query *Query `json:"query,omitempty" yaml:"query,omitempty"`

	// Range variable reference. Grouped marks a grouped source.
	Ref     string    `json:"ref,omitempty" yaml:"ref,omitempty"`
	Grouped *Grouping `json:"grouped,omitempty" yaml:"grouped,omitempty"`
}

// Field is one named field of a projection.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Expr *Expr  `json:"expr" yaml:"expr"`
}

// Grouping describes the group-by behind a grouped range variable.
type Grouping struct {
	Key     *Expr `json:"key" yaml:"key"`
	Element *Expr `json:"element,omitempty" yaml:"element,omitempty"`
}
