package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linqsql/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_ValidQuery(t *testing.T) {
	q := &Query{
		From:  customers,
		Where: []Expr{Binary{Op: OpEqual, Left: Member(customers, "City", ir.KindString), Right: Const("London")}},
		OrderBy: []OrderGroup{
			{{Expr: Member(customers, "ContactName", ir.KindString), Direction: Descending}},
		},
		Select: NewProjection{Fields: []NamedExpr{
			{Name: "Name", Expr: Member(customers, "ContactName", ir.KindString)},
			{Name: "City", Expr: Member(customers, "City", ir.KindString)},
		}},
		ResultOperators: []ResultOperator{Skip{N: 5}, Take{N: 5}},
	}

	assert.Empty(t, Validate(q))
}

func TestValidate_NilQuery(t *testing.T) {
	errs := Validate(nil)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingOperand, errs[0].Code)
}

func TestValidate_MissingSource(t *testing.T) {
	errs := Validate(&Query{})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingSource, errs[0].Code)
	assert.Equal(t, "query.from", errs[0].Field)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	q := &Query{
		From:  customers,
		Where: []Expr{nil, Binary{Op: OpEqual, Left: nil, Right: Const(1)}},
		ResultOperators: []ResultOperator{
			Take{N: -1},
			Skip{N: -2},
			Union{},
		},
	}

	errs := Validate(q)
	assert.Equal(t, []string{
		ErrNilExpression, ErrNilExpression,
		ErrNegativeCount, ErrNegativeCount,
		ErrMissingOperand,
	}, codes(errs))
	assert.Equal(t, "query.where[1].left", errs[1].Field)
}

func TestValidate_Projection(t *testing.T) {
	q := &Query{
		From: customers,
		Select: NewProjection{Fields: []NamedExpr{
			{Name: "A", Expr: Const(1)},
			{Name: "A", Expr: Const(2)},
			{Name: "", Expr: Const(3)},
		}},
	}

	errs := Validate(q)
	assert.Equal(t, []string{ErrInvalidProjection, ErrInvalidProjection}, codes(errs))

	errs = Validate(&Query{From: customers, Select: NewProjection{}})
	assert.Equal(t, []string{ErrInvalidProjection}, codes(errs))
}

func TestValidate_DuplicateSource(t *testing.T) {
	q := &Query{
		From:       customers,
		Additional: []Source{{Name: "c", Entity: "Orders"}},
	}

	errs := Validate(q)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateSource, errs[0].Code)
}

func TestValidate_NestedQueries(t *testing.T) {
	inner := &Query{From: Source{Name: "o"}}
	q := &Query{
		From: customers,
		Where: []Expr{SubQuery{Query: &Query{
			From:            orders,
			ResultOperators: []ResultOperator{All{}},
		}}},
		ResultOperators: []ResultOperator{Concat{Other: inner}},
	}

	errs := Validate(q)
	assert.Equal(t, []string{ErrNilExpression, ErrMissingSource}, codes(errs))
	assert.Equal(t, "query.where[0].subquery.result_operators[0].predicate", errs[0].Field)
	assert.Equal(t, "query.result_operators[0].other.from", errs[1].Field)
}

func TestValidate_JoinKeys(t *testing.T) {
	q := &Query{
		From:  customers,
		Joins: []Join{{Source: orders}},
	}

	errs := Validate(q)
	assert.Equal(t, []string{ErrNilExpression, ErrNilExpression}, codes(errs))
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Field: "query.from", Message: "main source entity is required", Code: ErrMissingSource}
	assert.Equal(t, "[E201] query.from: main source entity is required", err.Error())
}
