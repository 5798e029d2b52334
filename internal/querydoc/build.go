package querydoc

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/queryir"
)

// Build converts a document into a query. Structural checks beyond what
// is needed to build the tree are left to queryir.Validate.
func Build(doc *Query) (*queryir.Query, error) {
	if doc == nil {
		return nil, &DocumentError{Path: "query", Message: "document is empty"}
	}
	b := &builder{}
	return b.query("query", nil, doc)
}

type builder struct{}

// frame holds the range variables one query declares.
type frame struct {
	parent  *frame
	sources []queryir.Source
}

// lookup finds a range variable by name, innermost query first. A name
// that matches no variable also matches an unnamed source of that entity.
func (f *frame) lookup(name string) (queryir.Source, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		for _, src := range cur.sources {
			if src.Name == name {
				return src, true
			}
		}
		for _, src := range cur.sources {
			if src.Name == "" && src.Entity == name {
				return src, true
			}
		}
	}
	return queryir.Source{}, false
}

func (b *builder) query(path string, parent *frame, doc *Query) (*queryir.Query, error) {
	q := &queryir.Query{From: source(doc.From)}
	f := &frame{parent: parent, sources: []queryir.Source{q.From}}

	for _, s := range doc.Additional {
		src := source(s)
		q.Additional = append(q.Additional, src)
		f.sources = append(f.sources, src)
	}
	for _, j := range doc.Joins {
		f.sources = append(f.sources, source(j.Source))
	}

	for i, j := range doc.Joins {
		jp := fmt.Sprintf("%s.joins[%d]", path, i)
		outer, err := b.expr(jp+".outer", f, j.Outer)
		if err != nil {
			return nil, err
		}
		inner, err := b.expr(jp+".inner", f, j.Inner)
		if err != nil {
			return nil, err
		}
		q.Joins = append(q.Joins, queryir.Join{
			Source:   source(j.Source),
			OuterKey: outer,
			InnerKey: inner,
			Into:     j.Into,
		})
	}

	for i, w := range doc.Where {
		e, err := b.expr(fmt.Sprintf("%s.where[%d]", path, i), f, w)
		if err != nil {
			return nil, err
		}
		q.Where = append(q.Where, e)
	}

	for i, group := range doc.OrderBy {
		var og queryir.OrderGroup
		for k, o := range group {
			op := fmt.Sprintf("%s.order_by[%d][%d]", path, i, k)
			dir, err := direction(op+".dir", o.Dir)
			if err != nil {
				return nil, err
			}
			e, err := b.expr(op+".by", f, o.By)
			if err != nil {
				return nil, err
			}
			og = append(og, queryir.Ordering{Expr: e, Direction: dir})
		}
		q.OrderBy = append(q.OrderBy, og)
	}

	if doc.Select != nil {
		sel, err := b.expr(path+".select", f, doc.Select)
		if err != nil {
			return nil, err
		}
		q.Select = sel
	}

	for i, o := range doc.ResultOperators {
		op, err := b.operator(fmt.Sprintf("%s.result_operators[%d]", path, i), f, o)
		if err != nil {
			return nil, err
		}
		q.ResultOperators = append(q.ResultOperators, op)
	}

	return q, nil
}

func source(s Source) queryir.Source {
	return queryir.Source{Name: s.Name, Entity: s.Entity}
}

func direction(path, dir string) (queryir.Direction, error) {
	switch strings.ToLower(dir) {
	case "", "asc", "ascending":
		return queryir.Ascending, nil
	case "desc", "descending":
		return queryir.Descending, nil
	default:
		return 0, &DocumentError{Path: path, Message: fmt.Sprintf("unknown direction %q", dir)}
	}
}

func (b *builder) operator(path string, f *frame, o Operator) (queryir.ResultOperator, error) {
	// Set operators are siblings of the outer query: they see its
	// enclosing queries but not its own range variables.
	other := func() (*queryir.Query, error) {
		if o.Query == nil {
			return nil, nil
		}
		return b.query(path+".query", f.parent, o.Query)
	}
	predicate := func() (queryir.Expr, error) {
		if o.Predicate == nil {
			return nil, nil
		}
		return b.expr(path+".predicate", f, o.Predicate)
	}

	switch o.Op {
	case "Count":
		return queryir.Count{}, nil
	case "Average":
		return queryir.Average{}, nil
	case "Sum":
		return queryir.Sum{}, nil
	case "Min":
		return queryir.Min{}, nil
	case "Max":
		return queryir.Max{}, nil
	case "Distinct":
		return queryir.Distinct{}, nil
	case "Take":
		return queryir.Take{N: o.N}, nil
	case "Skip":
		return queryir.Skip{N: o.N}, nil
	case "Union", "Intersect", "Except", "Concat":
		q, err := other()
		if err != nil {
			return nil, err
		}
		switch o.Op {
		case "Union":
			return queryir.Union{Other: q}, nil
		case "Intersect":
			return queryir.Intersect{Other: q}, nil
		case "Except":
			return queryir.Except{Other: q}, nil
		default:
			return queryir.Concat{Other: q}, nil
		}
	case "Any", "All":
		p, err := predicate()
		if err != nil {
			return nil, err
		}
		if o.Op == "Any" {
			return queryir.Any{Predicate: p}, nil
		}
		return queryir.All{Predicate: p}, nil
	case "":
		return nil, &DocumentError{Path: path + ".op", Message: "operator name is required"}
	default:
		return queryir.Unrecognized{Name: o.Op}, nil
	}
}

// expr builds one expression. A nil node yields a nil expression, which
// queryir.Validate reports with its own path.
func (b *builder) expr(path string, f *frame, e *Expr) (queryir.Expr, error) {
	if e == nil {
		return nil, nil
	}

	kinds := e.discriminators()
	switch len(kinds) {
	case 0:
		return nil, &DocumentError{Path: path, Message: "expression sets none of const, null, member, op, not, call, if, new, query, ref"}
	case 1:
	default:
		return nil, &DocumentError{Path: path, Message: fmt.Sprintf("expression sets more than one of %s", strings.Join(kinds, ", "))}
	}

	switch kinds[0] {
	case "const", "null":
		v, err := literal(e)
		if err != nil {
			return nil, &DocumentError{Path: path, Message: err.Error()}
		}
		return queryir.Constant{Value: v}, nil

	case "member":
		return b.member(path, f, e)

	case "op":
		op, err := queryir.ParseBinaryOp(e.Op)
		if err != nil {
			return nil, &DocumentError{Path: path + ".op", Message: err.Error()}
		}
		left, err := b.expr(path+".left", f, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.expr(path+".right", f, e.Right)
		if err != nil {
			return nil, err
		}
		return queryir.Binary{Op: op, Left: left, Right: right}, nil

	case "not":
		operand, err := b.expr(path+".not", f, e.Not)
		if err != nil {
			return nil, err
		}
		return queryir.Not{Operand: operand}, nil

	case "call":
		recv, err := b.expr(path+".receiver", f, e.Receiver)
		if err != nil {
			return nil, err
		}
		call := queryir.MethodCall{Method: queryir.Method(e.Call), Receiver: recv}
		for i, a := range e.Args {
			arg, err := b.expr(fmt.Sprintf("%s.args[%d]", path, i), f, a)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil

	case "if":
		test, err := b.expr(path+".if", f, e.If)
		if err != nil {
			return nil, err
		}
		then, err := b.expr(path+".then", f, e.Then)
		if err != nil {
			return nil, err
		}
		els, err := b.expr(path+".else", f, e.Else)
		if err != nil {
			return nil, err
		}
		return queryir.Conditional{Test: test, Then: then, Else: els}, nil

	case "new":
		proj := queryir.NewProjection{}
		for i, field := range e.New {
			fe, err := b.expr(fmt.Sprintf("%s.new[%d].expr", path, i), f, field.Expr)
			if err != nil {
				return nil, err
			}
			proj.Fields = append(proj.Fields, queryir.NamedExpr{Name: field.Name, Expr: fe})
		}
		return proj, nil

	case "query":
		q, err := b.query(path+".query", f, e.Query)
		if err != nil {
			return nil, err
		}
		return queryir.SubQuery{Query: q}, nil

	default: // ref
		src, ok := f.lookup(e.Ref)
		if !ok {
			return nil, &DocumentError{Path: path + ".ref", Message: fmt.Sprintf("unknown range variable %q", e.Ref)}
		}
		ref := queryir.SourceReference{Source: src}
		if e.Grouped != nil {
			key, err := b.expr(path+".grouped.key", f, e.Grouped.Key)
			if err != nil {
				return nil, err
			}
			elem, err := b.expr(path+".grouped.element", f, e.Grouped.Element)
			if err != nil {
				return nil, err
			}
			ref.Grouping = &queryir.Grouping{Key: key, Element: elem}
		}
		return ref, nil
	}
}

func (b *builder) member(path string, f *frame, e *Expr) (queryir.Expr, error) {
	kind, err := ir.ParseKind(e.Kind)
	if err != nil {
		return nil, &DocumentError{Path: path + ".kind", Message: err.Error()}
	}

	switch {
	case e.Source != "" && e.On != nil:
		return nil, &DocumentError{Path: path, Message: "member sets both source and on"}
	case e.On != nil:
		recv, err := b.expr(path+".on", f, e.On)
		if err != nil {
			return nil, err
		}
		return queryir.MemberAccess{Receiver: recv, Member: e.Member, Kind: kind}, nil
	case e.Source != "":
		src, ok := f.lookup(e.Source)
		if !ok {
			return nil, &DocumentError{Path: path + ".source", Message: fmt.Sprintf("unknown range variable %q", e.Source)}
		}
		return queryir.Member(src, e.Member, kind), nil
	default:
		return nil, &DocumentError{Path: path, Message: "member needs a source or an on expression"}
	}
}

// discriminators lists the node-kind keys e sets.
func (e *Expr) discriminators() []string {
	var kinds []string
	add := func(set bool, name string) {
		if set {
			kinds = append(kinds, name)
		}
	}
	add(e.Const != nil, "const")
	add(e.Null, "null")
	add(e.Member != "", "member")
	add(e.Op != "", "op")
	add(e.Not != nil, "not")
	add(e.Call != "", "call")
	add(e.If != nil, "if")
	add(len(e.New) > 0, "new")
	add(e.Query != nil, "query")
	add(e.Ref != "", "ref")
	return kinds
}

// literal converts a document constant. Typed literals are written as
// strings: decimals keep their exact digits that way.
func literal(e *Expr) (ir.Value, error) {
	if e.Null {
		return ir.Null{}, nil
	}

	switch strings.ToLower(e.Type) {
	case "":
		return ir.FromGo(e.Const)
	case "string":
		s, ok := e.Const.(string)
		if !ok {
			return nil, fmt.Errorf("string literal must be a string, got %T", e.Const)
		}
		return ir.String(s), nil
	case "float":
		v, err := ir.FromGo(e.Const)
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case ir.Int:
			return ir.Float(n), nil
		case ir.Float:
			return n, nil
		}
		return nil, fmt.Errorf("float literal must be a number, got %T", e.Const)
	case "decimal":
		return ir.NewDecimal(fmt.Sprint(e.Const))
	case "time":
		s, ok := e.Const.(string)
		if !ok {
			return nil, fmt.Errorf("time literal must be an RFC 3339 string, got %T", e.Const)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", s, err)
		}
		return ir.Time{Time: t}, nil
	case "uuid":
		s, ok := e.Const.(string)
		if !ok {
			return nil, fmt.Errorf("uuid literal must be a string, got %T", e.Const)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse uuid %q: %w", s, err)
		}
		return ir.UUID(id), nil
	case "bytes":
		s, ok := e.Const.(string)
		if !ok {
			return nil, fmt.Errorf("bytes literal must be a base64 string, got %T", e.Const)
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decode bytes: %w", err)
		}
		return ir.Bytes(raw), nil
	default:
		return nil, fmt.Errorf("unknown literal type %q", e.Type)
	}
}
