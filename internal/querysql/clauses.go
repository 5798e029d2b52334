package querysql

import (
	"strconv"
	"strings"

	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/schema"
)

const (
	quantifierAny = "EXISTS"
	quantifierAll = "NOT EXISTS"
)

// combinedAlias names the derived table a set operation is wrapped in when
// further clauses apply to its result.
const combinedAlias = "combined"

// selectItem is one entry of a SELECT list.
type selectItem struct {
	expr  string
	alias string
}

func (s selectItem) String() string {
	if s.alias == "" {
		return s.expr
	}
	return s.expr + " AS " + aliasName(s.alias)
}

// clauseAggregator collects the compiled clauses of one statement and
// serializes them in SQL order.
type clauseAggregator struct {
	// star is the select list used when items is empty.
	star  string
	items []selectItem

	from  []string
	joins []string
	where []fragment

	// orderBy holds groups in output order, newest group first.
	orderBy [][]string

	offset, limit       int64
	hasOffset, hasLimit bool

	// aggregate is the SQL function wrapping the select list, if any.
	aggregate    string
	aggregateOp  queryir.ResultOperator
	quantifier   string
	combined     string
	afterCombine bool
}

func newClauseAggregator() *clauseAggregator {
	return &clauseAggregator{star: "*"}
}

func (a *clauseAggregator) setSelect(items []selectItem) {
	a.items = items
}

func (a *clauseAggregator) addFrom(item string) {
	a.from = append(a.from, item)
}

func (a *clauseAggregator) addJoin(item, on string) {
	a.joins = append(a.joins, "JOIN "+item+" ON "+on)
}

func (a *clauseAggregator) addWhere(f fragment) {
	a.where = append(a.where, f)
}

func (a *clauseAggregator) addOrderGroup(keys []string) {
	a.orderBy = append(a.orderBy, keys)
}

func (a *clauseAggregator) setLimit(n int64) {
	a.limit, a.hasLimit = n, true
	a.afterCombine = true
}

func (a *clauseAggregator) setOffset(n int64) {
	a.offset, a.hasOffset = n, true
	a.afterCombine = true
}

// setAggregate wraps the select list in fn. The last call wins.
func (a *clauseAggregator) setAggregate(fn string, op queryir.ResultOperator) {
	a.aggregate = fn
	a.aggregateOp = op
	a.afterCombine = true
}

// combine turns the statement built so far into the left operand of a set
// operation. Later clauses apply to the combined result.
func (a *clauseAggregator) combine(keyword, right string) error {
	left, err := a.render()
	if err != nil {
		return err
	}
	combined := "(" + left + ") " + keyword + " (" + right + ")"

	*a = clauseAggregator{
		star:     "*",
		from:     []string{"(" + combined + ") AS " + schema.Quote(combinedAlias)},
		combined: combined,
	}
	return nil
}

// selectList renders the select list, applying the aggregate wrapper.
func (a *clauseAggregator) selectList() (string, error) {
	if a.aggregate == "" {
		return a.plainSelectList(), nil
	}

	name := queryir.OperatorName(a.aggregateOp)
	switch {
	case a.aggregate == "DISTINCT":
		return "DISTINCT " + a.plainSelectList(), nil
	case len(a.items) == 0 && a.aggregate == "COUNT":
		return "COUNT(*)", nil
	case len(a.items) == 0:
		return "", &UnsupportedOperationError{
			Construct: ConstructResultOperator,
			Name:      name,
			Detail:    "requires a scalar projection",
		}
	case len(a.items) == 1:
		item := a.items[0]
		return selectItem{expr: a.aggregate + "(" + item.expr + ")", alias: item.alias}.String(), nil
	default:
		return "", &UnsupportedOperationError{
			Construct: ConstructResultOperator,
			Name:      name,
			Detail:    "cannot aggregate a multi-column projection",
		}
	}
}

func (a *clauseAggregator) plainSelectList() string {
	if len(a.items) == 0 {
		return a.star
	}
	texts := make([]string, len(a.items))
	for i, item := range a.items {
		texts[i] = item.String()
	}
	return strings.Join(texts, ", ")
}

// render serializes the statement.
func (a *clauseAggregator) render() (string, error) {
	if a.quantifier != "" {
		return "SELECT " + a.quantified(), nil
	}
	if a.combined != "" && !a.afterCombine {
		return a.combined, nil
	}

	selectList, err := a.selectList()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectList)
	a.writeBody(&sb)
	return sb.String(), nil
}

// writeBody writes everything after the select list.
func (a *clauseAggregator) writeBody(sb *strings.Builder) {
	sb.WriteString(" FROM ")
	sb.WriteString(strings.Join(a.from, ", "))

	for _, j := range a.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	if len(a.where) > 0 {
		preds := make([]string, len(a.where))
		for i, w := range a.where {
			preds[i] = w.text
			if len(a.where) > 1 {
				preds[i] = w.bind(precAnd)
			}
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(preds, " AND "))
	}

	if len(a.orderBy) > 0 {
		var keys []string
		for _, group := range a.orderBy {
			keys = append(keys, group...)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(keys, ", "))
	}

	if a.hasOffset {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatInt(a.offset, 10))
	}
	if a.hasLimit {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(a.limit, 10))
	}
}

// quantified renders the statement as an EXISTS or NOT EXISTS test. The
// select list is always *.
func (a *clauseAggregator) quantified() string {
	var sb strings.Builder
	sb.WriteString(a.quantifier)
	sb.WriteString(" (SELECT *")
	a.writeBody(&sb)
	sb.WriteString(")")
	return sb.String()
}
