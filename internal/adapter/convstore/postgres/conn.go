package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates a pgx connection pool from the provided DSN with OTEL
// query tracing enabled.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("op=postgres.NewPool: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.ConnConfig.Tracer = otelpgx.NewTracer()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("op=postgres.NewPool: %w", err)
	}
	return pool, nil
}

// Migrate creates the conversations table when it does not exist yet.
func Migrate(ctx context.Context, pool PgxPool) error {
	q := `CREATE TABLE IF NOT EXISTS conversations (
		session_id TEXT PRIMARY KEY,
		messages   JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("op=postgres.Migrate: %w", err)
	}
	return nil
}
