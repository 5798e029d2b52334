package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/linqsql/internal/materialize"
	"github.com/roach88/linqsql/internal/querysql"
)

// Postgres is a Transport over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool for dsn and verifies it with a ping.
func ConnectPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Exec implements Transport.
func (p *Postgres) Exec(ctx context.Context, script string) error {
	if _, err := p.pool.Exec(ctx, script); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

// Query implements Transport. pgx rewrites the @pN placeholders to
// positional parameters from pgx.NamedArgs.
func (p *Postgres) Query(ctx context.Context, cmd querysql.Command) ([]materialize.Row, error) {
	rows, err := p.pool.Query(ctx, cmd.SQL, pgx.NamedArgs(cmd.Named()))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := []materialize.Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(materialize.Row, len(fields))
		for i, f := range fields {
			row[i] = materialize.Column{Name: f.Name, Value: values[i]}
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
