// Package ir defines the literal values carried by query expressions.
//
// Value is a sealed interface: only the types declared in this package
// implement it, so the SQL compiler and the row materializer can switch over
// literals exhaustively. ir imports nothing internal; every other package
// may import it.
//
// MarshalCanonical renders values and plain Go collections as deterministic
// JSON. It is used for golden files and CLI output, never for SQL.
package ir
