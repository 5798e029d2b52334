// Package queryir defines the query AST consumed by the SQL compiler.
//
// A Query is the structured form of one host-language query: a main source,
// optional additional sources and joins, conjoined predicates, stacked
// order-by groups, a projection and an ordered list of result operators.
// The AST is produced by an external front end (see package querydoc for the
// document-based one shipped here) and is read-only to the compiler.
//
// SEALED INTERFACES:
//
// Expr and ResultOperator are sealed with marker methods. Only types in this
// package implement them, so backends can switch exhaustively:
//
//	switch e := expr.(type) {
//	case Constant:
//	    // literal
//	case MemberAccess:
//	    // column
//	...
//	}
//
// Expressions are values. Nodes that embed other queries (SubQuery, the set
// operators) hold a *Query so the tree can be shared without copying.
//
// Validate performs structural checks before compilation and collects every
// problem it finds rather than stopping at the first.
package queryir
