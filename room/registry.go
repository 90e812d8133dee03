// Package room maps room ids to rooms. Each room runs its own goroutine that
// serializes every roster and draft mutation; rooms never share state.
package room

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"tcgp-draft-server/auth"
	"tcgp-draft-server/catalog"
	"tcgp-draft-server/config"
	"tcgp-draft-server/drafterr"
)

// PoolSource produces the pool for a draft of n items.
type PoolSource interface {
	Generate(c *catalog.Catalog, n int) ([]*catalog.Item, error)
}

// Registry holds every live room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	catalog       *catalog.Catalog
	pools         PoolSource
	maxNameLength int
	hashCost      int
	emptyGrace    time.Duration
	maxAge        time.Duration
	now           func() time.Time

	// OnDraftComplete is called in its own goroutine with each finished draft. Optional.
	OnDraftComplete func(Result)
}

// Option configures a Registry.
type Option func(*Registry)

// WithEmptyGrace overrides how long an empty room survives.
func WithEmptyGrace(d time.Duration) Option { return func(r *Registry) { r.emptyGrace = d } }

// WithMaxAge overrides the idle-room age limit.
func WithMaxAge(d time.Duration) Option { return func(r *Registry) { r.maxAge = d } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

// NewRegistry creates an empty registry drafting from cat.
func NewRegistry(cfg *config.Config, cat *catalog.Catalog, pools PoolSource, opts ...Option) *Registry {
	r := &Registry{
		rooms:         make(map[string]*Room),
		catalog:       cat,
		pools:         pools,
		maxNameLength: cfg.MaxNameLength,
		hashCost:      cfg.SecretHashCost,
		emptyGrace:    cfg.EmptyRoomGrace(),
		maxAge:        cfg.RoomMaxAge(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeName trims name and checks its length.
func (r *Registry) NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 1 || n > r.maxNameLength {
		return "", drafterr.ErrInvalidName
	}
	return name, nil
}

// Create opens a room with host as its first player and returns the room id.
func (r *Registry) Create(host, secret string) (string, error) {
	host, err := r.NormalizeName(host)
	if err != nil {
		return "", err
	}
	hash, err := auth.HashSecret(secret, r.hashCost)
	if err != nil {
		return "", err
	}
	rm := newRoom(uuid.NewString(), host, hash, r)

	r.mu.Lock()
	r.rooms[rm.ID] = rm
	r.mu.Unlock()

	go rm.Run()
	slog.Info("room created", "tag", "room", "room", rm.ID, "host", host)
	return rm.ID, nil
}

// Get returns the room with id.
func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[id]
	return rm, ok
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.rooms, id)
	r.mu.Unlock()
}

func (r *Registry) do(roomID string, a Action) error {
	rm, ok := r.Get(roomID)
	if !ok {
		return drafterr.ErrUnknownRoom
	}
	return rm.do(a)
}

// Join adds name to the roster after checking the room secret. The player
// stays offline until Attach.
func (r *Registry) Join(roomID, name, secret string) (string, error) {
	rm, ok := r.Get(roomID)
	if !ok {
		return "", drafterr.ErrUnknownRoom
	}
	name, err := r.NormalizeName(name)
	if err != nil {
		return "", err
	}
	if !auth.CheckSecret(rm.secretHash, secret) {
		return "", drafterr.ErrBadSecret
	}
	return name, rm.do(Action{Type: ActionJoin, Name: name})
}

// Attach binds a live connection to a seated player, for first connection
// and reconnection alike.
func (r *Registry) Attach(roomID, name, connID string, send chan []byte) error {
	return r.do(roomID, Action{Type: ActionAttach, Name: name, ConnID: connID, Send: send})
}

// Detach marks the player holding connID offline. The seat is kept.
func (r *Registry) Detach(roomID, connID string) {
	if err := r.do(roomID, Action{Type: ActionDetach, ConnID: connID}); err != nil {
		slog.Debug("detach from closed room", "tag", "room", "room", roomID, "err", err)
	}
}

// Leave removes name from the roster, or only disconnects them once a
// draft is running. Like Start, ReadyForPack and Pick it fails with
// ErrSeatSuperseded unless connID is the player's current connection.
func (r *Registry) Leave(roomID, name, connID string) error {
	return r.do(roomID, Action{Type: ActionLeave, Name: name, ConnID: connID})
}

// Start generates a pool with settings and starts the draft. Only the first
// roster member may start.
func (r *Registry) Start(roomID, name, connID string, settings catalog.Settings) error {
	return r.do(roomID, Action{Type: ActionStart, Name: name, ConnID: connID, Settings: settings})
}

// ReadyForPack asks for the player's current pack.
func (r *Registry) ReadyForPack(roomID, name, connID string) error {
	return r.do(roomID, Action{Type: ActionReadyForPack, Name: name, ConnID: connID})
}

// Pick takes the item at index from the player's current pack.
func (r *Registry) Pick(roomID, name, connID string, index int) error {
	return r.do(roomID, Action{Type: ActionPick, Name: name, ConnID: connID, Index: index})
}

// List returns a snapshot of every room, oldest first.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	out := make([]Summary, 0, len(r.rooms))
	for _, rm := range r.rooms {
		out = append(out, rm.Summary())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Reap closes every room older than the age limit whose roster is empty.
// Each room re-checks before closing.
func (r *Registry) Reap() int {
	now := r.now()
	var candidates []*Room
	r.mu.RLock()
	for _, rm := range r.rooms {
		s := rm.Summary()
		if s.RosterSize == 0 && now.Sub(s.CreatedAt) > r.maxAge {
			candidates = append(candidates, rm)
		}
	}
	r.mu.RUnlock()

	reaped := 0
	for _, rm := range candidates {
		if rm.do(Action{Type: ActionReap, MaxAge: r.maxAge}) == nil {
			if _, still := r.Get(rm.ID); !still {
				reaped++
			}
		}
	}
	if reaped > 0 {
		slog.Info("reaped idle rooms", "tag", "room", "count", reaped)
	}
	return reaped
}

// RunReaper sweeps every interval until ctx is cancelled.
func (r *Registry) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reap()
		}
	}
}
