// Package postgres provides a PostgreSQL-backed conversation store.
//
// Conversations are stored one row per session with the message history as
// JSONB. Row-level locking on the session row serializes concurrent
// appends for the same session.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/flookyhq/flooky-tools/internal/adapter/convstore"
	"github.com/flookyhq/flooky-tools/internal/domain"
)

// PgxPool is the minimal subset of pgxpool used by the store for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Store implements domain.ConversationStore on PostgreSQL.
type Store struct {
	Pool       PgxPool
	maxHistory int
}

// New constructs a Store with the given history cap.
func New(pool PgxPool, maxHistory int) *Store {
	return &Store{Pool: pool, maxHistory: maxHistory}
}

// History returns the conversation for sessionID. Unknown sessions yield
// an empty history.
func (s *Store) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	tracer := otel.Tracer("convstore.postgres")
	ctx, span := tracer.Start(ctx, "conversations.History")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "conversations"),
	)
	q := `SELECT messages FROM conversations WHERE session_id=$1`
	var raw []byte
	if err := s.Pool.QueryRow(ctx, q, sessionID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("op=convstore.history: %w", err)
	}
	var msgs []domain.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("op=convstore.history: decode: %w", err)
	}
	return msgs, nil
}

// Append adds msgs to the conversation and applies the history cap. The
// read-modify-write runs in a transaction with the session row locked.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tracer := otel.Tracer("convstore.postgres")
	ctx, span := tracer.Start(ctx, "conversations.Append")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "conversations"),
	)

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=convstore.append: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	var history []domain.Message
	err = tx.QueryRow(ctx, `SELECT messages FROM conversations WHERE session_id=$1 FOR UPDATE`, sessionID).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return fmt.Errorf("op=convstore.append: select: %w", err)
	default:
		if err := json.Unmarshal(raw, &history); err != nil {
			return fmt.Errorf("op=convstore.append: decode: %w", err)
		}
	}

	history = convstore.Trim(append(history, msgs...), s.maxHistory)
	b, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("op=convstore.append: encode: %w", err)
	}
	q := `INSERT INTO conversations (session_id, messages, updated_at) VALUES ($1,$2,$3)
	      ON CONFLICT (session_id) DO UPDATE SET messages=$2, updated_at=$3`
	if _, err := tx.Exec(ctx, q, sessionID, b, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=convstore.append: upsert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=convstore.append: commit: %w", err)
	}
	return nil
}

// Reset discards the conversation for sessionID.
func (s *Store) Reset(ctx context.Context, sessionID string) error {
	tracer := otel.Tracer("convstore.postgres")
	ctx, span := tracer.Start(ctx, "conversations.Reset")
	defer span.End()
	if _, err := s.Pool.Exec(ctx, `DELETE FROM conversations WHERE session_id=$1`, sessionID); err != nil {
		return fmt.Errorf("op=convstore.reset: %w", err)
	}
	return nil
}
