package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createSQLiteTableSQL = `
CREATE TABLE IF NOT EXISTS draft_history (
	id           TEXT PRIMARY KEY,
	room_id      TEXT NOT NULL,
	host         TEXT NOT NULL,
	completed_at INTEGER NOT NULL,
	seat_order   TEXT NOT NULL,
	hands        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_draft_history_completed_at ON draft_history(completed_at DESC);
`

// SQLiteStore persists completed drafts in a SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// NewSQLiteStore opens (or creates) the database at path and ensures the table exists.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, createSQLiteTableSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create draft_history: %w", err)
	}
	slog.Info("opened SQLite archive", "tag", "storage", "path", path)
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Insert records a finished draft.
func (s *SQLiteStore) Insert(ctx context.Context, rec DraftRecord) error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	order, hands, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO draft_history (id, room_id, host, completed_at, seat_order, hands)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RoomID, rec.Host, toMillis(rec.CompletedAt), string(order), string(hands))
	return err
}

// List returns archived drafts, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]DraftRecord, error) {
	if s == nil || s.sqlDB == nil {
		return []DraftRecord{}, nil
	}
	limit, offset = clampPage(limit, offset)
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, room_id, host, completed_at, seat_order, hands
		 FROM draft_history
		 ORDER BY completed_at DESC
		 LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DraftRecord{}
	for rows.Next() {
		var r DraftRecord
		var completedAt int64
		var order, hands string
		if err := rows.Scan(&r.ID, &r.RoomID, &r.Host, &completedAt, &order, &hands); err != nil {
			return nil, err
		}
		r.CompletedAt = fromMillis(completedAt)
		if err := decodeRecord(&r, []byte(order), []byte(hands)); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
