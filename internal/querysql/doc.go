// Package querysql compiles queryir queries into parameterized SQL.
//
// The pipeline has four parts:
//   - ParameterAggregator assigns @pN placeholders to literal values
//   - the expression compiler turns one queryir.Expr into an immutable fragment
//   - the clause aggregator collects fragments per clause and serializes them
//   - SQLCompiler walks a query's clauses in fixed order
//
// Literal values are never formatted into SQL text. Every Constant becomes a
// placeholder and its value is returned alongside the SQL in a Command.
//
// The output dialect is PostgreSQL-like: double-quoted identifiers, "||" for
// string concatenation, "#" for bitwise xor and OFFSET before LIMIT.
package querysql
