package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS draft_history (
	id           UUID PRIMARY KEY,
	room_id      TEXT NOT NULL,
	host         TEXT NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	seat_order   JSONB NOT NULL,
	hands        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_draft_history_completed_at ON draft_history(completed_at DESC);
`

// PostgresStore persists completed drafts in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and ensures the draft_history table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Insert records a finished draft.
func (s *PostgresStore) Insert(ctx context.Context, rec DraftRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	order, hands, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO draft_history (id, room_id, host, completed_at, seat_order, hands)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.RoomID, rec.Host, rec.CompletedAt, order, hands)
	return err
}

// List returns archived drafts, newest first.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]DraftRecord, error) {
	if s == nil || s.pool == nil {
		return []DraftRecord{}, nil
	}
	limit, offset = clampPage(limit, offset)
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, room_id, host, completed_at, seat_order, hands
		FROM draft_history
		ORDER BY completed_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DraftRecord, error) {
		var r DraftRecord
		var completedAt time.Time
		var order, hands []byte
		if err := row.Scan(&r.ID, &r.RoomID, &r.Host, &completedAt, &order, &hands); err != nil {
			return r, err
		}
		r.CompletedAt = completedAt.UTC()
		return r, decodeRecord(&r, order, hands)
	})
}

func encodeRecord(rec DraftRecord) (order, hands []byte, err error) {
	if order, err = json.Marshal(rec.Order); err != nil {
		return nil, nil, fmt.Errorf("encode seat order: %w", err)
	}
	if hands, err = json.Marshal(rec.Hands); err != nil {
		return nil, nil, fmt.Errorf("encode hands: %w", err)
	}
	return order, hands, nil
}

func decodeRecord(r *DraftRecord, order, hands []byte) error {
	if err := json.Unmarshal(order, &r.Order); err != nil {
		return fmt.Errorf("decode seat order: %w", err)
	}
	if err := json.Unmarshal(hands, &r.Hands); err != nil {
		return fmt.Errorf("decode hands: %w", err)
	}
	return nil
}
