package queryir

// ResultOperator post-processes a query.
//
// This is a sealed interface - only types in this package implement it.
//
// Operator groups:
//   - Aggregates (Count, Average, Sum, Min, Max, Distinct) wrap the projection
//   - Paging (Take, Skip)
//   - Set combinators (Union, Intersect, Except, Concat) take a second query
//   - Quantifiers (Any, All) turn the query into a boolean
//   - Unrecognized carries any other operator name through to the compiler
type ResultOperator interface {
	resultOperator() // Marker method - seals interface to this package
}

// Count replaces the projection with COUNT(...).
type Count struct{}

func (Count) resultOperator() {}

// Average replaces the projection with AVG(...).
type Average struct{}

func (Average) resultOperator() {}

// Sum replaces the projection with SUM(...).
type Sum struct{}

func (Sum) resultOperator() {}

// Min replaces the projection with MIN(...).
type Min struct{}

func (Min) resultOperator() {}

// Max replaces the projection with MAX(...).
type Max struct{}

func (Max) resultOperator() {}

// Distinct removes duplicate rows from the projection.
type Distinct struct{}

func (Distinct) resultOperator() {}

// Take limits the result to N rows.
type Take struct {
	N int64
}

func (Take) resultOperator() {}

// Skip drops the first N rows.
type Skip struct {
	N int64
}

func (Skip) resultOperator() {}

// Union combines with Other, removing duplicates.
type Union struct {
	Other *Query
}

func (Union) resultOperator() {}

// Intersect keeps rows present in both queries.
type Intersect struct {
	Other *Query
}

func (Intersect) resultOperator() {}

// Except keeps rows absent from Other.
type Except struct {
	Other *Query
}

func (Except) resultOperator() {}

// Concat combines with Other, keeping duplicates.
type Concat struct {
	Other *Query
}

func (Concat) resultOperator() {}

// Any is true when some row satisfies Predicate. A nil Predicate tests
// for any row at all.
type Any struct {
	Predicate Expr
}

func (Any) resultOperator() {}

// All is true when every row satisfies Predicate.
type All struct {
	Predicate Expr
}

func (All) resultOperator() {}

// Unrecognized is an operator the front end parsed but which has no
// translation here (GroupBy, Reverse, First, ...). Compiling it fails with
// an error naming the operator.
type Unrecognized struct {
	Name string
}

func (Unrecognized) resultOperator() {}

// OperatorName returns the display name of op.
func OperatorName(op ResultOperator) string {
	switch o := op.(type) {
	case Count:
		return "Count"
	case Average:
		return "Average"
	case Sum:
		return "Sum"
	case Min:
		return "Min"
	case Max:
		return "Max"
	case Distinct:
		return "Distinct"
	case Take:
		return "Take"
	case Skip:
		return "Skip"
	case Union:
		return "Union"
	case Intersect:
		return "Intersect"
	case Except:
		return "Except"
	case Concat:
		return "Concat"
	case Any:
		return "Any"
	case All:
		return "All"
	case Unrecognized:
		return o.Name
	default:
		return "unknown"
	}
}
