package queryir

import (
	"fmt"

	"github.com/roach88/linqsql/internal/ir"
)

// Expr is a scalar or boolean expression node.
//
// This is a sealed interface - only types in this package implement it.
//
// Expr types:
//   - Constant: a literal value, always bound as a parameter
//   - MemberAccess: a property of a receiver (usually a source)
//   - Binary: an operator applied to two operands
//   - Not: logical negation
//   - MethodCall: a host method with a fixed SQL translation
//   - Conditional: test ? then : else, chains become CASE
//   - NewProjection: a record of named expressions
//   - SubQuery: a nested query
//   - SourceReference: a range variable
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Constant is a literal value.
type Constant struct {
	Value ir.Value
}

func (Constant) exprNode() {}

// MemberAccess reads Member from Receiver.
//
// Kind is the static type of the member as known to the front end. It is
// only consulted to pick string concatenation over arithmetic addition and
// to recognise string Length.
type MemberAccess struct {
	Receiver Expr
	Member   string
	Kind     ir.Kind
}

func (MemberAccess) exprNode() {}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (Binary) exprNode() {}

// Not negates Operand.
type Not struct {
	Operand Expr
}

func (Not) exprNode() {}

// MethodCall invokes Method on Receiver with Args.
// Receiver is nil for static calls such as string.Concat.
type MethodCall struct {
	Method   Method
	Receiver Expr
	Args     []Expr
}

func (MethodCall) exprNode() {}

// Conditional is "Test ? Then : Else". An Else that is itself a Conditional
// continues the chain.
type Conditional struct {
	Test Expr
	Then Expr
	Else Expr
}

func (Conditional) exprNode() {}

// NamedExpr is one field of a NewProjection.
type NamedExpr struct {
	Name string
	Expr Expr
}

// NewProjection constructs a record with named fields, in declaration order.
type NewProjection struct {
	Fields []NamedExpr
}

func (NewProjection) exprNode() {}

// SubQuery embeds a complete query.
type SubQuery struct {
	Query *Query
}

func (SubQuery) exprNode() {}

// SourceReference refers to a range variable.
//
// Grouping is set when the variable ranges over the result of a group-by;
// the SQL compiler does not translate groupings.
type SourceReference struct {
	Source   Source
	Grouping *Grouping
}

func (SourceReference) exprNode() {}

// Grouping describes the group-by that produced a grouped source.
type Grouping struct {
	Key     Expr
	Element Expr
}

// BinaryOp is a binary operator.
type BinaryOp int

const (
	OpEqual BinaryOp = iota
	OpNotEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpBitAnd
	OpBitOr
	OpBitXor
	OpLeftShift
	OpRightShift
	OpAnd
	OpOr
)

var binaryOpNames = [...]string{
	OpEqual:              "Equal",
	OpNotEqual:           "NotEqual",
	OpGreaterThan:        "GreaterThan",
	OpGreaterThanOrEqual: "GreaterThanOrEqual",
	OpLessThan:           "LessThan",
	OpLessThanOrEqual:    "LessThanOrEqual",
	OpAdd:                "Add",
	OpSubtract:           "Subtract",
	OpMultiply:           "Multiply",
	OpDivide:             "Divide",
	OpModulo:             "Modulo",
	OpBitAnd:             "And",
	OpBitOr:              "Or",
	OpBitXor:             "ExclusiveOr",
	OpLeftShift:          "LeftShift",
	OpRightShift:         "RightShift",
	OpAnd:                "AndAlso",
	OpOr:                 "OrElse",
}

var binaryOpSymbols = map[string]BinaryOp{
	"==": OpEqual,
	"!=": OpNotEqual,
	">":  OpGreaterThan,
	">=": OpGreaterThanOrEqual,
	"<":  OpLessThan,
	"<=": OpLessThanOrEqual,
	"+":  OpAdd,
	"-":  OpSubtract,
	"*":  OpMultiply,
	"/":  OpDivide,
	"%":  OpModulo,
	"&":  OpBitAnd,
	"|":  OpBitOr,
	"^":  OpBitXor,
	"<<": OpLeftShift,
	">>": OpRightShift,
	"&&": OpAnd,
	"||": OpOr,
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// IsComparison reports whether op yields a boolean from two scalars.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual && op <= OpLessThanOrEqual
}

// IsLogical reports whether op is AndAlso or OrElse.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// ParseBinaryOp accepts either the operator symbol ("==") or its expression
// type name ("Equal").
func ParseBinaryOp(s string) (BinaryOp, error) {
	if op, ok := binaryOpSymbols[s]; ok {
		return op, nil
	}
	for op, name := range binaryOpNames {
		if name == s {
			return BinaryOp(op), nil
		}
	}
	return 0, fmt.Errorf("unknown binary operator %q", s)
}

// Method names a host method call. The set the SQL compiler translates is
// fixed; any other name is carried through so the compiler can reject it by
// name.
type Method string

const (
	MethodEquals     Method = "Equals"
	MethodToLower    Method = "ToLower"
	MethodToUpper    Method = "ToUpper"
	MethodReverse    Method = "Reverse"
	MethodLength     Method = "Length"
	MethodConcat     Method = "Concat"
	MethodSubstring  Method = "Substring"
	MethodReplace    Method = "Replace"
	MethodTrim       Method = "Trim"
	MethodTrimStart  Method = "TrimStart"
	MethodTrimEnd    Method = "TrimEnd"
	MethodContains   Method = "Contains"
	MethodStartsWith Method = "StartsWith"
	MethodEndsWith   Method = "EndsWith"
)

// KindOf returns the static kind of e, or ir.KindUnknown.
func KindOf(e Expr) ir.Kind {
	switch x := e.(type) {
	case Constant:
		return ir.KindOf(x.Value)
	case MemberAccess:
		if x.Kind == ir.KindUnknown && x.Member == "Length" && KindOf(x.Receiver) == ir.KindString {
			return ir.KindInt
		}
		return x.Kind
	case Binary:
		switch {
		case x.Op.IsComparison(), x.Op.IsLogical():
			return ir.KindBool
		case x.Op == OpAdd && (KindOf(x.Left) == ir.KindString || KindOf(x.Right) == ir.KindString):
			return ir.KindString
		}
		if k := KindOf(x.Left); k != ir.KindUnknown {
			return k
		}
		return KindOf(x.Right)
	case Not:
		return ir.KindBool
	case MethodCall:
		switch x.Method {
		case MethodEquals, MethodContains, MethodStartsWith, MethodEndsWith:
			return ir.KindBool
		case MethodLength:
			return ir.KindInt
		case MethodToLower, MethodToUpper, MethodReverse, MethodConcat, MethodSubstring,
			MethodReplace, MethodTrim, MethodTrimStart, MethodTrimEnd:
			return ir.KindString
		}
		return ir.KindUnknown
	case Conditional:
		if k := KindOf(x.Then); k != ir.KindUnknown {
			return k
		}
		return KindOf(x.Else)
	default:
		return ir.KindUnknown
	}
}

// Ref returns a reference to src.
func Ref(src Source) SourceReference {
	return SourceReference{Source: src}
}

// Member returns src.member with the given static kind.
func Member(src Source, member string, kind ir.Kind) MemberAccess {
	return MemberAccess{Receiver: Ref(src), Member: member, Kind: kind}
}

// Const wraps a host value as a Constant. It panics on values ir.FromGo
// rejects and is meant for statically known literals.
func Const(v any) Constant {
	val, err := ir.FromGo(v)
	if err != nil {
		panic(fmt.Sprintf("queryir.Const: %v", err))
	}
	return Constant{Value: val}
}
