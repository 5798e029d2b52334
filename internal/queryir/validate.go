package queryir

import (
	"fmt"
)

// Validation error codes (E200-E299)
const (
	ErrMissingSource     = "E201" // main source has no entity
	ErrNilExpression     = "E202" // required expression is nil
	ErrNegativeCount     = "E203" // Take/Skip count below zero
	ErrInvalidProjection = "E204" // empty, unnamed or duplicate projection fields
	ErrMissingOperand    = "E205" // set operator without a second query
	ErrDuplicateSource   = "E206" // two sources share a range variable name
)

// ValidationError is a structural problem in a query.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks q for structural problems the compiler cannot recover
// from. Returns all errors found (does not fail-fast). Nested queries are
// validated too, with their path prefixed to Field.
//
// Validate does not decide translatability: unknown methods, groupings and
// group joins are reported by the compiler.
func Validate(q *Query) []ValidationError {
	v := &validator{}
	v.query("query", q)
	return v.errs
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *validator) query(path string, q *Query) {
	if q == nil {
		v.add(path, ErrMissingOperand, "query is nil")
		return
	}

	if q.From.Entity == "" {
		v.add(path+".from", ErrMissingSource, "main source entity is required")
	}

	names := make(map[string]bool)
	for i, src := range q.Sources() {
		if src.Name == "" {
			continue
		}
		if names[src.Name] {
			v.add(fmt.Sprintf("%s.sources[%d]", path, i), ErrDuplicateSource,
				"range variable %q is declared twice", src.Name)
		}
		names[src.Name] = true
	}

	for i, src := range q.Additional {
		if src.Entity == "" {
			v.add(fmt.Sprintf("%s.additional[%d]", path, i), ErrMissingSource, "source entity is required")
		}
	}

	for i, j := range q.Joins {
		field := fmt.Sprintf("%s.joins[%d]", path, i)
		if j.Source.Entity == "" {
			v.add(field+".source", ErrMissingSource, "join source entity is required")
		}
		v.required(field+".outer_key", j.OuterKey)
		v.required(field+".inner_key", j.InnerKey)
	}

	for i, w := range q.Where {
		v.required(fmt.Sprintf("%s.where[%d]", path, i), w)
	}

	for i, group := range q.OrderBy {
		for k, o := range group {
			v.required(fmt.Sprintf("%s.order_by[%d][%d]", path, i, k), o.Expr)
		}
	}

	if q.Select != nil {
		v.expr(path+".select", q.Select)
	}

	for i, op := range q.ResultOperators {
		field := fmt.Sprintf("%s.result_operators[%d]", path, i)
		switch o := op.(type) {
		case Take:
			if o.N < 0 {
				v.add(field, ErrNegativeCount, "Take count must not be negative, got %d", o.N)
			}
		case Skip:
			if o.N < 0 {
				v.add(field, ErrNegativeCount, "Skip count must not be negative, got %d", o.N)
			}
		case Union:
			v.query(field+".other", o.Other)
		case Intersect:
			v.query(field+".other", o.Other)
		case Except:
			v.query(field+".other", o.Other)
		case Concat:
			v.query(field+".other", o.Other)
		case Any:
			if o.Predicate != nil {
				v.expr(field+".predicate", o.Predicate)
			}
		case All:
			v.required(field+".predicate", o.Predicate)
		case nil:
			v.add(field, ErrNilExpression, "result operator is nil")
		}
	}
}

func (v *validator) required(field string, e Expr) {
	if e == nil {
		v.add(field, ErrNilExpression, "expression is required")
		return
	}
	v.expr(field, e)
}

// expr walks e looking for nil children, bad projections and nested queries.
func (v *validator) expr(field string, e Expr) {
	switch x := e.(type) {
	case nil:
		v.add(field, ErrNilExpression, "expression is required")
	case Constant:
		if x.Value == nil {
			v.add(field, ErrNilExpression, "constant has no value")
		}
	case MemberAccess:
		v.required(field+".receiver", x.Receiver)
	case Binary:
		v.required(field+".left", x.Left)
		v.required(field+".right", x.Right)
	case Not:
		v.required(field+".operand", x.Operand)
	case MethodCall:
		if x.Receiver != nil {
			v.expr(field+".receiver", x.Receiver)
		}
		for i, arg := range x.Args {
			v.required(fmt.Sprintf("%s.args[%d]", field, i), arg)
		}
	case Conditional:
		v.required(field+".test", x.Test)
		v.required(field+".then", x.Then)
		v.required(field+".else", x.Else)
	case NewProjection:
		if len(x.Fields) == 0 {
			v.add(field, ErrInvalidProjection, "projection has no fields")
		}
		seen := make(map[string]bool)
		for i, f := range x.Fields {
			fieldPath := fmt.Sprintf("%s.fields[%d]", field, i)
			switch {
			case f.Name == "":
				v.add(fieldPath, ErrInvalidProjection, "projection field name is required")
			case seen[f.Name]:
				v.add(fieldPath, ErrInvalidProjection, "duplicate projection field %q", f.Name)
			}
			seen[f.Name] = true
			v.required(fieldPath, f.Expr)
		}
	case SubQuery:
		v.query(field+".subquery", x.Query)
	case SourceReference:
		if x.Source.Entity == "" {
			v.add(field, ErrMissingSource, "source reference has no entity")
		}
	}
}
