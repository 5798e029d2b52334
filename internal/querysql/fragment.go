package querysql

// Binding strength of a fragment's outermost operator, loosest first.
// Levels follow PostgreSQL operator precedence.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precLike
	precOther // || & | # << >>
	precAdd
	precMul
	precAtom
)

// fragment is compiled SQL text for one expression. Fragments are values:
// composing two fragments creates a third and never alters either.
type fragment struct {
	text string

	// prec is the binding strength of the outermost operator in text.
	prec int

	// op is the outermost operator token, if any.
	op string
}

func atom(text string) fragment {
	return fragment{text: text, prec: precAtom}
}

// bind returns f's text, parenthesized if f binds more loosely than min.
func (f fragment) bind(min int) string {
	if f.prec < min {
		return "(" + f.text + ")"
	}
	return f.text
}
