package querysql

import (
	"github.com/roach88/linqsql/internal/queryir"
)

// sqlOperator returns the SQL token and binding strength for op.
func sqlOperator(op queryir.BinaryOp) (string, int, bool) {
	switch op {
	case queryir.OpEqual:
		return "=", precCompare, true
	case queryir.OpNotEqual:
		return "!=", precCompare, true
	case queryir.OpGreaterThan:
		return ">", precCompare, true
	case queryir.OpGreaterThanOrEqual:
		return ">=", precCompare, true
	case queryir.OpLessThan:
		return "<", precCompare, true
	case queryir.OpLessThanOrEqual:
		return "<=", precCompare, true
	case queryir.OpAdd:
		return "+", precAdd, true
	case queryir.OpSubtract:
		return "-", precAdd, true
	case queryir.OpMultiply:
		return "*", precMul, true
	case queryir.OpDivide:
		return "/", precMul, true
	case queryir.OpModulo:
		return "%", precMul, true
	case queryir.OpBitAnd:
		return "&", precOther, true
	case queryir.OpBitOr:
		return "|", precOther, true
	case queryir.OpBitXor:
		return "#", precOther, true
	case queryir.OpLeftShift:
		return "<<", precOther, true
	case queryir.OpRightShift:
		return ">>", precOther, true
	case queryir.OpAnd:
		return "AND", precAnd, true
	case queryir.OpOr:
		return "OR", precOr, true
	default:
		return "", 0, false
	}
}

// associative operators may repeat on the right without parentheses.
// Arithmetic is excluded: float addition and integer division are not
// associative in SQL.
func associative(token string) bool {
	switch token {
	case "AND", "OR", "||":
		return true
	}
	return false
}

// binary joins two fragments with token, parenthesizing operands that bind
// more loosely than the operator.
func binary(left fragment, token string, prec int, right fragment) fragment {
	l := left.text
	if left.prec < prec || (left.prec == prec && prec == precCompare) {
		l = "(" + l + ")"
	}
	r := right.text
	if right.prec < prec || (right.prec == prec && !(associative(token) && right.op == token)) {
		r = "(" + r + ")"
	}
	return fragment{text: l + " " + token + " " + r, prec: prec, op: token}
}
