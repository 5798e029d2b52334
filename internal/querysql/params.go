package querysql

import (
	"slices"
	"strconv"

	"github.com/roach88/linqsql/internal/ir"
)

// Parameter is one bound value and the name its placeholder refers to.
type Parameter struct {
	Name  string   `json:"name"`
	Value ir.Value `json:"value"`
}

// Placeholder returns the token used for p in SQL text.
func (p Parameter) Placeholder() string {
	return "@" + p.Name
}

// ParameterAggregator hands out placeholders for literal values.
//
// One aggregator is owned by one compile, including every subquery and set
// operand it compiles, so placeholder names are unique per statement and
// Parameters() is in placeholder occurrence order.
type ParameterAggregator struct {
	params []Parameter
}

// Add registers v and returns its placeholder token.
func (a *ParameterAggregator) Add(v ir.Value) string {
	if v == nil {
		v = ir.Null{}
	}
	p := Parameter{Name: "p" + strconv.Itoa(len(a.params)), Value: v}
	a.params = append(a.params, p)
	return p.Placeholder()
}

// Parameters returns the registered bindings in registration order.
func (a *ParameterAggregator) Parameters() []Parameter {
	return slices.Clone(a.params)
}

// Len returns the number of registered parameters.
func (a *ParameterAggregator) Len() int {
	return len(a.params)
}
