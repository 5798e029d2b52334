package store

import (
	"context"
	"fmt"

	"github.com/roach88/linqsql/internal/materialize"
	"github.com/roach88/linqsql/internal/querysql"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Transport sends a compiled command to a database and returns its rows.
type Transport interface {
	// Query runs cmd and returns every row it produces.
	Query(ctx context.Context, cmd querysql.Command) ([]materialize.Row, error)

	// Exec runs a statement that returns no rows, such as DDL or a seed
	// script. It is not used for compiled queries.
	Exec(ctx context.Context, script string) error

	// Close releases the connection.
	Close() error
}

// Open connects to the database named by driver and dsn.
//
// For sqlite the dsn is a file path (or ":memory:"); for postgres it is a
// connection string understood by pgx.
func Open(ctx context.Context, driver, dsn string) (Transport, error) {
	switch driver {
	case DriverSQLite, "sqlite3", "":
		return OpenSQLite(dsn)
	case DriverPostgres, "postgresql", "pgx":
		return ConnectPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown driver %q (want %s or %s)", driver, DriverSQLite, DriverPostgres)
	}
}
