// Package store executes compiled commands against a database and returns
// raw rows for materialization.
//
// Two transports are provided:
//   - SQLite over database/sql with github.com/mattn/go-sqlite3
//   - PostgreSQL over github.com/jackc/pgx/v5
//
// Both bind parameters by name. Compiled SQL uses @pN placeholders, which
// SQLite accepts natively and pgx rewrites from pgx.NamedArgs.
//
// The transport owns connection lifecycle and honors context cancellation.
// Errors from the driver are returned wrapped with context, never retried.
package store
