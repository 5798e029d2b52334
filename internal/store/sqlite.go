package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/materialize"
	"github.com/roach88/linqsql/internal/querysql"
)

// SQLite is a Transport over a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the SQLite database at path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive across calls
	// and avoids SQLITE_BUSY between writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Exec implements Transport.
func (s *SQLite) Exec(ctx context.Context, script string) error {
	if _, err := s.db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

// Query implements Transport. Parameters are bound with sql.Named so each
// @pN placeholder receives its own value. Commands using constructs SQLite
// cannot parse fail with a DialectError before reaching the database.
func (s *SQLite) Query(ctx context.Context, cmd querysql.Command) ([]materialize.Row, error) {
	if err := checkSQLite(cmd.SQL); err != nil {
		return nil, err
	}

	args := make([]any, len(cmd.Params))
	for i, p := range cmd.Params {
		args[i] = sql.Named(p.Name, ir.Param(p.Value))
	}

	rows, err := s.db.QueryContext(ctx, cmd.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// scanRows reads every row into column/value pairs.
func scanRows(rows *sql.Rows) ([]materialize.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := []materialize.Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(materialize.Row, len(columns))
		for i, name := range columns {
			row[i] = materialize.Column{Name: name, Value: values[i]}
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
