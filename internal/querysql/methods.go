package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/linqsql/internal/queryir"
)

// method renders a method call from its compiled operands (the receiver,
// when present, followed by the arguments).
func method(name queryir.Method, ops []fragment) (fragment, error) {
	switch name {
	case queryir.MethodEquals:
		if err := arity(name, ops, 2); err != nil {
			return fragment{}, err
		}
		return atom("(" + ops[0].bind(precCompare+1) + " = " + ops[1].bind(precCompare+1) + ")"), nil

	case queryir.MethodToLower:
		return function(name, "LOWER", ops)
	case queryir.MethodToUpper:
		return function(name, "UPPER", ops)
	case queryir.MethodReverse:
		return function(name, "REVERSE", ops)
	case queryir.MethodLength:
		return function(name, "LENGTH", ops)

	case queryir.MethodConcat:
		if len(ops) == 0 {
			return fragment{}, arityError(name, "at least 1", 0)
		}
		texts := make([]string, len(ops))
		for i, op := range ops {
			texts[i] = op.text
		}
		return atom("CONCAT(" + strings.Join(texts, ", ") + ")"), nil

	case queryir.MethodSubstring:
		// Host offsets are 0-based, SQL positions 1-based.
		switch len(ops) {
		case 2:
			return atom("SUBSTRING(" + ops[0].text + " FROM " + ops[1].bind(precAdd) + "+1)"), nil
		case 3:
			return atom("SUBSTRING(" + ops[0].text + " FROM " + ops[1].bind(precAdd) + "+1 FOR " + ops[2].text + ")"), nil
		default:
			return fragment{}, arityError(name, "2 or 3", len(ops))
		}

	case queryir.MethodReplace:
		if err := arity(name, ops, 3); err != nil {
			return fragment{}, err
		}
		return atom("REPLACE(" + ops[0].text + ", " + ops[1].text + ", " + ops[2].text + ")"), nil

	case queryir.MethodTrim:
		return trim(name, "both", ops)
	case queryir.MethodTrimStart:
		return trim(name, "leading", ops)
	case queryir.MethodTrimEnd:
		return trim(name, "trailing", ops)

	case queryir.MethodContains:
		if err := arity(name, ops, 2); err != nil {
			return fragment{}, err
		}
		return like(ops[0], "'%' || "+ops[1].bind(precOther+1)+" || '%'"), nil
	case queryir.MethodStartsWith:
		if err := arity(name, ops, 2); err != nil {
			return fragment{}, err
		}
		return like(ops[0], ops[1].bind(precOther)+" || '%'"), nil
	case queryir.MethodEndsWith:
		if err := arity(name, ops, 2); err != nil {
			return fragment{}, err
		}
		return like(ops[0], "'%' || "+ops[1].bind(precOther+1)), nil

	default:
		return fragment{}, unsupported(ConstructMethod, string(name))
	}
}

// operandOrder returns the indexes of a method's n operands in the order
// they appear in its rendered SQL. Operands are compiled in that order so
// their placeholders are numbered left to right.
func operandOrder(name queryir.Method, n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	switch name {
	case queryir.MethodTrim, queryir.MethodTrimStart, queryir.MethodTrimEnd:
		// TRIM(side chars from subject)
		if n == 2 {
			order[0], order[1] = 1, 0
		}
	}
	return order
}

func function(name queryir.Method, fn string, ops []fragment) (fragment, error) {
	if err := arity(name, ops, 1); err != nil {
		return fragment{}, err
	}
	return atom(fn + "(" + ops[0].text + ")"), nil
}

// trim renders TRIM with an optional character set.
func trim(name queryir.Method, side string, ops []fragment) (fragment, error) {
	switch len(ops) {
	case 1:
		return atom("TRIM(" + side + " from " + ops[0].text + ")"), nil
	case 2:
		return atom("TRIM(" + side + " " + ops[1].text + " from " + ops[0].text + ")"), nil
	default:
		return fragment{}, arityError(name, "1 or 2", len(ops))
	}
}

func like(subject fragment, pattern string) fragment {
	return fragment{
		text: subject.bind(precLike+1) + " LIKE " + pattern,
		prec: precLike,
		op:   "LIKE",
	}
}

func arity(name queryir.Method, ops []fragment, want int) error {
	if len(ops) != want {
		return arityError(name, fmt.Sprint(want), len(ops))
	}
	return nil
}

func arityError(name queryir.Method, want string, got int) error {
	return &UnsupportedOperationError{
		Construct: ConstructMethod,
		Name:      string(name),
		Detail:    fmt.Sprintf("expects %s operands, got %d", want, got),
	}
}
