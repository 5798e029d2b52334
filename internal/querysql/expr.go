package querysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/schema"
)

// compiler holds the state shared by one compile: the resolver and the
// parameter aggregator every nested query registers into.
type compiler struct {
	resolver schema.Resolver
	params   *ParameterAggregator
}

// expr compiles e in scope s.
func (c *compiler) expr(s *scope, e queryir.Expr) (fragment, error) {
	switch x := e.(type) {
	case queryir.Constant:
		var v ir.Value = ir.Null{}
		if x.Value != nil {
			v = x.Value
		}
		return atom(c.params.Add(v)), nil

	case queryir.MemberAccess:
		return c.member(s, x)

	case queryir.Binary:
		return c.binary(s, x)

	case queryir.Not:
		operand, err := c.expr(s, x.Operand)
		if err != nil {
			return fragment{}, err
		}
		return fragment{text: "NOT (" + operand.text + ")", prec: precNot, op: "NOT"}, nil

	case queryir.MethodCall:
		operands := make([]queryir.Expr, 0, 1+len(x.Args))
		labels := make([]string, 0, 1+len(x.Args))
		if x.Receiver != nil {
			operands = append(operands, x.Receiver)
			labels = append(labels, "receiver")
		}
		for i, arg := range x.Args {
			operands = append(operands, arg)
			labels = append(labels, fmt.Sprintf("argument %d", i))
		}
		ops := make([]fragment, len(operands))
		for _, i := range operandOrder(x.Method, len(operands)) {
			f, err := c.expr(s, operands[i])
			if err != nil {
				return fragment{}, fmt.Errorf("%s %s: %w", x.Method, labels[i], err)
			}
			ops[i] = f
		}
		return method(x.Method, ops)

	case queryir.Conditional:
		return c.conditional(s, x)

	case queryir.NewProjection:
		items, err := c.projection(s, x)
		if err != nil {
			return fragment{}, err
		}
		texts := make([]string, len(items))
		for i, item := range items {
			texts[i] = item.String()
		}
		return fragment{text: strings.Join(texts, ", ")}, nil

	case queryir.SubQuery:
		return c.subquery(s, x)

	case queryir.SourceReference:
		if x.Grouping != nil {
			return fragment{}, unsupported(ConstructGrouping, x.Source.Entity)
		}
		b, err := s.resolve(x.Source, c.resolver)
		if err != nil {
			return fragment{}, err
		}
		return atom(schema.Quote(b.label())), nil

	case nil:
		return fragment{}, unsupported(ConstructExpression, "nil")

	default:
		return fragment{}, unsupported(ConstructExpression, fmt.Sprintf("%T", e))
	}
}

// member compiles a column reference, or LENGTH for the Length of a string.
func (c *compiler) member(s *scope, m queryir.MemberAccess) (fragment, error) {
	ref, ok := m.Receiver.(queryir.SourceReference)
	if !ok {
		if m.Member == "Length" && queryir.KindOf(m.Receiver) == ir.KindString {
			recv, err := c.expr(s, m.Receiver)
			if err != nil {
				return fragment{}, err
			}
			return atom("LENGTH(" + recv.text + ")"), nil
		}
		return fragment{}, unsupported(ConstructMemberAccess, m.Member)
	}
	if ref.Grouping != nil {
		return fragment{}, unsupported(ConstructGrouping, ref.Source.Entity)
	}

	column, err := c.resolver.ColumnName(m.Member)
	if err != nil {
		return fragment{}, fmt.Errorf("resolve column for %q: %w", m.Member, err)
	}
	if !s.qualified() {
		return atom(schema.Quote(column)), nil
	}

	b, err := s.resolve(ref.Source, c.resolver)
	if err != nil {
		return fragment{}, err
	}
	return atom(schema.Qualify(b.label(), column)), nil
}

func (c *compiler) binary(s *scope, b queryir.Binary) (fragment, error) {
	left, err := c.expr(s, b.Left)
	if err != nil {
		return fragment{}, err
	}
	right, err := c.expr(s, b.Right)
	if err != nil {
		return fragment{}, err
	}

	if b.Op == queryir.OpAdd && (queryir.KindOf(b.Left) == ir.KindString || queryir.KindOf(b.Right) == ir.KindString) {
		return binary(left, "||", precOther, right), nil
	}

	token, prec, ok := sqlOperator(b.Op)
	if !ok {
		return fragment{}, unsupported(ConstructExpression, b.Op.String())
	}
	return binary(left, token, prec, right), nil
}

// conditional flattens a chain of Conditionals into one CASE.
func (c *compiler) conditional(s *scope, cond queryir.Conditional) (fragment, error) {
	var sb strings.Builder
	sb.WriteString("CASE")

	var cur queryir.Expr = cond
	for {
		next, ok := cur.(queryir.Conditional)
		if !ok {
			break
		}
		test, err := c.expr(s, next.Test)
		if err != nil {
			return fragment{}, err
		}
		then, err := c.expr(s, next.Then)
		if err != nil {
			return fragment{}, err
		}
		sb.WriteString(" WHEN " + test.text + " THEN " + then.text)
		cur = next.Else
	}

	otherwise, err := c.expr(s, cur)
	if err != nil {
		return fragment{}, err
	}
	sb.WriteString(" ELSE " + otherwise.text + " END")
	return atom(sb.String()), nil
}

// subquery compiles a nested query against a scope chained to s, so its
// predicates may reference the enclosing query's sources.
func (c *compiler) subquery(s *scope, sq queryir.SubQuery) (fragment, error) {
	agg, err := c.query(s, sq.Query)
	if err != nil {
		return fragment{}, fmt.Errorf("subquery: %w", err)
	}
	if agg.quantifier != "" {
		prec := precAtom
		if agg.quantifier == quantifierAll {
			prec = precNot
		}
		return fragment{text: agg.quantified(), prec: prec, op: agg.quantifier}, nil
	}
	sql, err := agg.render()
	if err != nil {
		return fragment{}, fmt.Errorf("subquery: %w", err)
	}
	return atom("(" + sql + ")"), nil
}

// projection compiles each named field in declaration order.
func (c *compiler) projection(s *scope, p queryir.NewProjection) ([]selectItem, error) {
	items := make([]selectItem, len(p.Fields))
	for i, f := range p.Fields {
		frag, err := c.expr(s, f.Expr)
		if err != nil {
			return nil, fmt.Errorf("projection field %q: %w", f.Name, err)
		}
		items[i] = selectItem{expr: frag.text, alias: f.Name}
	}
	return items, nil
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// aliasName leaves plain identifiers bare and quotes anything else.
func aliasName(name string) string {
	if plainIdentifier.MatchString(name) {
		return name
	}
	return schema.Quote(name)
}
