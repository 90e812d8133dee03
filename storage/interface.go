package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"tcgp-draft-server/catalog"
)

// ResultStore archives completed drafts.
// Implementations can be swapped for testing (mocks) or different backends.
type ResultStore interface {
	Insert(ctx context.Context, rec DraftRecord) error
	List(ctx context.Context, limit, offset int) ([]DraftRecord, error)

	Close() error
}

// Ensure both backends implement ResultStore at compile time.
var (
	_ ResultStore = (*PostgresStore)(nil)
	_ ResultStore = (*SQLiteStore)(nil)
)

// DraftRecord is one archived draft. Hands hold item ids per player.
type DraftRecord struct {
	ID          string              `json:"id"`
	RoomID      string              `json:"roomId"`
	Host        string              `json:"host"`
	CompletedAt time.Time           `json:"completedAt"`
	Order       []string            `json:"order"`
	Hands       map[string][]string `json:"hands"`
}

// NewRecord builds an archive record with a fresh id.
func NewRecord(roomID, host string, completedAt time.Time, order []string, hands map[string][]*catalog.Item) DraftRecord {
	ids := make(map[string][]string, len(hands))
	for name, hand := range hands {
		list := make([]string, len(hand))
		for i, it := range hand {
			list[i] = it.ID
		}
		ids[name] = list
	}
	return DraftRecord{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		Host:        host,
		CompletedAt: completedAt.UTC(),
		Order:       append([]string(nil), order...),
		Hands:       ids,
	}
}

// Open picks a backend from dsn. postgres:// and postgresql:// URLs use Postgres,
// anything else is a SQLite file path. If dsn is empty, Open returns (nil, nil)
// and no persistence occurs.
func Open(ctx context.Context, dsn string) (ResultStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, nil
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		s, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := NewSQLiteStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
