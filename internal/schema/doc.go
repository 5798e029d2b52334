// Package schema maps logical entity and property names to physical table
// and column names.
//
// A Resolver is the only compiler collaborator shared between concurrent
// compiles. Implementations must be read-only after construction.
//
// Resolvers return physical names unquoted. Callers quote with Quote when
// emitting SQL.
package schema
