package querysql

import (
	"fmt"
	"log/slog"

	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/schema"
)

// Command is a compiled statement and its bindings. SQL and Params belong
// together: Params are in placeholder occurrence order.
type Command struct {
	SQL    string      `json:"sql"`
	Params []Parameter `json:"params"`
}

// Values returns the driver values of Params in order.
func (c Command) Values() []any {
	values := make([]any, len(c.Params))
	for i, p := range c.Params {
		values[i] = ir.Param(p.Value)
	}
	return values
}

// Fingerprint identifies the statement and its parameter values. Two
// commands with the same SQL and equal values share a fingerprint.
func (c Command) Fingerprint() (string, error) {
	params := make([]ir.Value, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.Value
	}
	return ir.Fingerprint(ir.DomainCommand, map[string]any{
		"sql":    c.SQL,
		"params": params,
	})
}

// Named returns the driver values keyed by placeholder name (without "@").
func (c Command) Named() map[string]any {
	named := make(map[string]any, len(c.Params))
	for _, p := range c.Params {
		named[p.Name] = ir.Param(p.Value)
	}
	return named
}

// SQLCompiler compiles queryir queries to parameterized SQL.
//
// CRITICAL: All values are parameterized (never interpolated).
//
// A SQLCompiler is safe for concurrent use when its Resolver is. Each
// Compile call owns its own parameter and clause aggregators.
type SQLCompiler struct {
	resolver schema.Resolver
}

// NewSQLCompiler creates a compiler using resolver for physical names.
// A nil resolver maps names unchanged.
func NewSQLCompiler(resolver schema.Resolver) *SQLCompiler {
	if resolver == nil {
		resolver = schema.Identity{}
	}
	return &SQLCompiler{resolver: resolver}
}

// Compile converts q to a Command.
//
// The query is validated first. Any failure returns the zero Command: no
// partially built SQL ever leaves the compiler.
func (c *SQLCompiler) Compile(q *queryir.Query) (Command, error) {
	if errs := queryir.Validate(q); len(errs) > 0 {
		return Command{}, invalidQuery(errs)
	}

	comp := &compiler{resolver: c.resolver, params: &ParameterAggregator{}}
	agg, err := comp.query(nil, q)
	if err != nil {
		return Command{}, err
	}
	sql, err := agg.render()
	if err != nil {
		return Command{}, err
	}

	cmd := Command{SQL: sql, Params: comp.params.Parameters()}
	slog.Debug("compiled query",
		"entity", q.From.Entity,
		"sql", cmd.SQL,
		"params", len(cmd.Params))
	return cmd, nil
}

// query walks q's clauses in fixed order: select, main source, additional
// sources and joins, where, order by, result operators. parent is the scope
// of the enclosing query for correlated subqueries, or nil.
func (c *compiler) query(parent *scope, q *queryir.Query) (*clauseAggregator, error) {
	if q == nil {
		return nil, unsupported(ConstructExpression, "nil query")
	}

	s := newScope(parent)
	agg := newClauseAggregator()

	// Every source is declared before any expression is compiled so that
	// qualification is consistent across clauses.
	main, err := s.declare(q.From, c.resolver)
	if err != nil {
		return nil, err
	}
	agg.addFrom(main.fromItem())
	for _, src := range q.Additional {
		b, err := s.declare(src, c.resolver)
		if err != nil {
			return nil, err
		}
		agg.addFrom(b.fromItem())
	}
	joined := make([]binding, len(q.Joins))
	for i, j := range q.Joins {
		if j.IsGroupJoin() {
			return nil, &UnsupportedOperationError{Construct: ConstructJoin, Name: "group join", Detail: "into " + j.Into}
		}
		b, err := s.declare(j.Source, c.resolver)
		if err != nil {
			return nil, err
		}
		joined[i] = b
	}

	if err := c.selectClause(s, q, agg); err != nil {
		return nil, err
	}

	for i, j := range q.Joins {
		outer, err := c.expr(s, j.OuterKey)
		if err != nil {
			return nil, fmt.Errorf("join %s outer key: %w", j.Source.Entity, err)
		}
		inner, err := c.expr(s, j.InnerKey)
		if err != nil {
			return nil, fmt.Errorf("join %s inner key: %w", j.Source.Entity, err)
		}
		on := binary(outer, "=", precCompare, inner)
		agg.addJoin(joined[i].fromItem(), on.text)
	}

	for i, w := range q.Where {
		f, err := c.expr(s, w)
		if err != nil {
			return nil, fmt.Errorf("where clause %d: %w", i, err)
		}
		agg.addWhere(f)
	}

	// Quantifier predicates join the WHERE clause, so they are compiled
	// before ORDER BY to keep placeholders in occurrence order.
	predicates := make(map[int]fragment)
	for i, op := range q.ResultOperators {
		var pred queryir.Expr
		negate := false
		switch o := op.(type) {
		case queryir.Any:
			pred = o.Predicate
		case queryir.All:
			pred, negate = o.Predicate, true
		}
		if pred == nil {
			continue
		}
		f, err := c.expr(s, pred)
		if err != nil {
			return nil, fmt.Errorf("%s predicate: %w", queryir.OperatorName(op), err)
		}
		if negate {
			f = fragment{text: "NOT (" + f.text + ")", prec: precNot, op: "NOT"}
		}
		predicates[i] = f
	}

	// The newest group sorts first, so groups are compiled newest first to
	// register their placeholders in the order they are written.
	for i := len(q.OrderBy) - 1; i >= 0; i-- {
		group := q.OrderBy[i]
		keys := make([]string, len(group))
		for k, o := range group {
			f, err := c.expr(s, o.Expr)
			if err != nil {
				return nil, fmt.Errorf("order by group %d: %w", i, err)
			}
			keys[k] = f.text + " " + o.Direction.String()
		}
		agg.addOrderGroup(keys)
	}

	for i, op := range q.ResultOperators {
		pred, hasPred := predicates[i]
		if err := c.resultOperator(parent, agg, op, pred, hasPred); err != nil {
			return nil, err
		}
	}

	return agg, nil
}

// selectClause registers the projection. A nil select or a bare source
// reference projects every column.
func (c *compiler) selectClause(s *scope, q *queryir.Query, agg *clauseAggregator) error {
	switch sel := q.Select.(type) {
	case nil:
		agg.star = c.star(s, s.bindings[0])
		return nil
	case queryir.SourceReference:
		if sel.Grouping != nil {
			return unsupported(ConstructGrouping, sel.Source.Entity)
		}
		b, err := s.resolve(sel.Source, c.resolver)
		if err != nil {
			return err
		}
		agg.star = c.star(s, b)
		return nil
	case queryir.NewProjection:
		items, err := c.projection(s, sel)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		agg.setSelect(items)
		return nil
	default:
		f, err := c.expr(s, sel)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		agg.setSelect([]selectItem{{expr: f.text}})
		return nil
	}
}

// star is "*" for single-source queries and label.* otherwise.
func (c *compiler) star(s *scope, b binding) string {
	if len(s.bindings) > 1 {
		return schema.Quote(b.label()) + ".*"
	}
	return "*"
}

// resultOperator applies op to agg. pred is the compiled predicate of an
// Any or All operator, when it has one.
func (c *compiler) resultOperator(parent *scope, agg *clauseAggregator, op queryir.ResultOperator, pred fragment, hasPred bool) error {
	name := queryir.OperatorName(op)
	if agg.quantifier != "" {
		return &UnsupportedOperationError{
			Construct: ConstructResultOperator,
			Name:      name,
			Detail:    "cannot follow Any or All",
		}
	}

	switch o := op.(type) {
	case queryir.Count:
		agg.setAggregate("COUNT", op)
	case queryir.Average:
		agg.setAggregate("AVG", op)
	case queryir.Sum:
		agg.setAggregate("SUM", op)
	case queryir.Min:
		agg.setAggregate("MIN", op)
	case queryir.Max:
		agg.setAggregate("MAX", op)
	case queryir.Distinct:
		agg.setAggregate("DISTINCT", op)

	case queryir.Take:
		agg.setLimit(o.N)
	case queryir.Skip:
		agg.setOffset(o.N)

	case queryir.Union:
		return c.setOperation(parent, agg, "UNION", o.Other)
	case queryir.Intersect:
		return c.setOperation(parent, agg, "INTERSECT", o.Other)
	case queryir.Except:
		return c.setOperation(parent, agg, "EXCEPT", o.Other)
	case queryir.Concat:
		return c.setOperation(parent, agg, "UNION ALL", o.Other)

	case queryir.Any:
		return quantify(agg, name, quantifierAny, pred, hasPred)
	case queryir.All:
		return quantify(agg, name, quantifierAll, pred, hasPred)

	default:
		return unsupported(ConstructResultOperator, name)
	}
	return nil
}

// setOperation compiles other independently, sharing only the parameter
// aggregator, and combines it with the statement built so far.
func (c *compiler) setOperation(parent *scope, agg *clauseAggregator, keyword string, other *queryir.Query) error {
	right, err := c.query(parent, other)
	if err != nil {
		return fmt.Errorf("%s operand: %w", keyword, err)
	}
	rightSQL, err := right.render()
	if err != nil {
		return fmt.Errorf("%s operand: %w", keyword, err)
	}
	return agg.combine(keyword, rightSQL)
}

// quantify turns the statement into an EXISTS test over its rows. For All
// the predicate arrives negated: no row may fail it.
func quantify(agg *clauseAggregator, name, quantifier string, pred fragment, hasPred bool) error {
	if agg.combined != "" {
		return &UnsupportedOperationError{
			Construct: ConstructResultOperator,
			Name:      name,
			Detail:    "cannot follow a set operator",
		}
	}
	if hasPred {
		agg.addWhere(pred)
	}
	agg.quantifier = quantifier
	return nil
}
