// Package draft implements pack circulation for one room: partitioning the
// pool, routing passed packs around the table, and advancing rounds. Every
// transition returns the outputs it produced instead of sending them.
package draft

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"tcgp-draft-server/catalog"
)

const (
	Rounds   = 3
	PackSize = 10
	HandSize = Rounds * PackSize
)

var (
	ErrPlayersNotReady = errors.New("all players must be connected to start")
	ErrStalePick       = errors.New("no active pack")
	ErrBadIndex        = errors.New("pick index out of range")
	ErrUnknownSeat     = errors.New("unknown seat")
	ErrPoolSize        = errors.New("pool size does not match the table")
	ErrFinished        = errors.New("draft is finished")
)

// Pack is a bundle in circulation. The ID stays with the pack as it moves;
// Items is replaced, never modified, on every pick.
type Pack struct {
	ID    int
	Items []*catalog.Item
}

// Participant is a roster entry at draft start.
type Participant struct {
	Name   string
	Online bool
}

type seat struct {
	name      string
	online    bool
	hand      []*catalog.Item
	active    []Pack // at most one
	reserve   []Pack
	pending   []Pack
	announced bool // head of active was sent to the current connection
}

// Draft is the state of one in-progress draft. It is not safe for concurrent
// use; the owning room serializes access.
type Draft struct {
	round    int
	seats    []*seat
	index    map[string]int
	finished bool
	total    int
}

// Option configures a Draft.
type Option func(*options)

type options struct {
	shuffle func([]*catalog.Item)
}

// WithShuffler replaces the pool shuffle performed before partitioning.
func WithShuffler(fn func([]*catalog.Item)) Option {
	return func(o *options) { o.shuffle = fn }
}

// New starts a draft. Every participant must be online and the pool must hold
// exactly HandSize items per participant.
func New(pool []*catalog.Item, roster []Participant, opts ...Option) (*Draft, []Output, error) {
	o := options{shuffle: func(items []*catalog.Item) {
		rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	}}
	for _, opt := range opts {
		opt(&o)
	}
	if len(roster) == 0 {
		return nil, nil, ErrPlayersNotReady
	}
	for _, p := range roster {
		if !p.Online {
			return nil, nil, fmt.Errorf("%w: %s is offline", ErrPlayersNotReady, p.Name)
		}
	}
	if len(pool) != HandSize*len(roster) {
		return nil, nil, fmt.Errorf("%w: %d items for %d players", ErrPoolSize, len(pool), len(roster))
	}

	items := slices.Clone(pool)
	o.shuffle(items)

	d := &Draft{index: make(map[string]int, len(roster)), total: len(items)}
	nextID := 0
	for i, p := range roster {
		s := &seat{name: p.Name, online: true}
		share := items[i*HandSize : (i+1)*HandSize]
		for r := range Rounds {
			pk := Pack{ID: nextID, Items: slices.Clone(share[r*PackSize : (r+1)*PackSize])}
			nextID++
			if r == 0 {
				s.active = append(s.active, pk)
			} else {
				s.reserve = append(s.reserve, pk)
			}
		}
		d.index[p.Name] = i
		d.seats = append(d.seats, s)
	}
	return d, []Output{broadcast(RoundStarted{Round: 0})}, nil
}

// Pick removes the item at idx from the seat's active pack and passes the
// remainder to the next seat.
func (d *Draft) Pick(name string, idx int) ([]Output, error) {
	if d.finished {
		return nil, ErrFinished
	}
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeat, name)
	}
	s := d.seats[i]
	if len(s.active) == 0 {
		return nil, ErrStalePick
	}
	head := s.active[0]
	if idx < 0 || idx >= len(head.Items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrBadIndex, idx, len(head.Items))
	}

	s.hand = append(s.hand, head.Items[idx])
	rest := slices.Delete(slices.Clone(head.Items), idx, idx+1)
	s.active = s.active[1:]
	s.announced = false

	var outs []Output
	if len(rest) > 0 {
		next := d.seats[(i+1)%len(d.seats)]
		outs = append(outs, d.deliver(next, Pack{ID: head.ID, Items: rest})...)
	}
	if len(s.active) == 0 && len(s.pending) > 0 {
		s.active = append(s.active, s.pending[0])
		s.pending = s.pending[1:]
		outs = append(outs, d.announce(s)...)
	}
	if d.roundDone() {
		outs = append(outs, d.advance()...)
	}
	return outs, nil
}

// ReadyForPack sends the seat its head pack if the current connection has not
// seen it yet. Repeating the call is a no-op.
func (d *Draft) ReadyForPack(name string) ([]Output, error) {
	if d.finished {
		return nil, ErrFinished
	}
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeat, name)
	}
	s := d.seats[i]
	if len(s.active) == 0 || s.announced {
		return nil, nil
	}
	return d.announce(s), nil
}

// Suspend marks a seat offline. Packs keep flowing to it and the head pack is
// resent after Resume and ReadyForPack.
func (d *Draft) Suspend(name string) error {
	i, ok := d.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSeat, name)
	}
	d.seats[i].online = false
	d.seats[i].announced = false
	return nil
}

// Resume marks a seat online on a new connection. The head pack counts as
// unsent until the next ReadyForPack, even if the old connection was never
// suspended.
func (d *Draft) Resume(name string) error {
	i, ok := d.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSeat, name)
	}
	d.seats[i].online = true
	d.seats[i].announced = false
	return nil
}

func (d *Draft) deliver(s *seat, pk Pack) []Output {
	if len(s.active) > 0 {
		s.pending = append(s.pending, pk)
		return nil
	}
	s.active = append(s.active, pk)
	return d.announce(s)
}

func (d *Draft) announce(s *seat) []Output {
	if !s.online || len(s.active) == 0 {
		return nil
	}
	s.announced = true
	return []Output{to(s.name, PackReceived{Round: d.round, Pack: s.active[0]})}
}

func (d *Draft) roundDone() bool {
	for _, s := range d.seats {
		if len(s.active) > 0 {
			return false
		}
	}
	return true
}

func (d *Draft) advance() []Output {
	if d.round >= Rounds-1 {
		d.finished = true
		hands := make(map[string][]*catalog.Item, len(d.seats))
		for _, s := range d.seats {
			hands[s.name] = slices.Clone(s.hand)
		}
		return []Output{broadcast(Completed{Hands: hands, Order: d.Order()})}
	}

	d.round++
	outs := []Output{broadcast(RoundStarted{Round: d.round})}
	for _, s := range d.seats {
		if len(s.pending) > 0 {
			slog.Error("pending packs at round boundary", "tag", "draft", "player", s.name, "count", len(s.pending))
			s.pending = nil
		}
		s.active = append(s.active, s.reserve[0])
		s.reserve = s.reserve[1:]
		s.announced = false
		outs = append(outs, d.announce(s)...)
	}
	return outs
}

// Round returns the zero-based current round.
func (d *Draft) Round() int { return d.round }

// Finished reports whether the last round has completed.
func (d *Draft) Finished() bool { return d.finished }

// Order returns seat names in passing order.
func (d *Draft) Order() []string {
	names := make([]string, len(d.seats))
	for i, s := range d.seats {
		names[i] = s.name
	}
	return names
}

// Seated reports whether name holds a seat.
func (d *Draft) Seated(name string) bool {
	_, ok := d.index[name]
	return ok
}

// SeatView is a read-only snapshot of one seat.
type SeatView struct {
	Name    string
	Online  bool
	Hand    []*catalog.Item
	Active  *Pack
	Reserve int
	Pending int
}

// View returns a snapshot of the named seat.
func (d *Draft) View(name string) (SeatView, error) {
	i, ok := d.index[name]
	if !ok {
		return SeatView{}, fmt.Errorf("%w: %s", ErrUnknownSeat, name)
	}
	s := d.seats[i]
	v := SeatView{
		Name:    s.name,
		Online:  s.online,
		Hand:    slices.Clone(s.hand),
		Reserve: len(s.reserve),
		Pending: len(s.pending),
	}
	if len(s.active) > 0 {
		head := s.active[0]
		v.Active = &head
	}
	return v, nil
}

// Validate checks the structural invariants: at most one active pack per
// seat, nothing pending behind an empty seat, and no item lost or duplicated.
func (d *Draft) Validate() error {
	count := 0
	for _, s := range d.seats {
		if len(s.active) > 1 {
			return fmt.Errorf("seat %s holds %d active packs", s.name, len(s.active))
		}
		if len(s.pending) > 0 && len(s.active) == 0 {
			return fmt.Errorf("seat %s has pending packs but no active pack", s.name)
		}
		count += len(s.hand)
		for _, queue := range [][]Pack{s.active, s.reserve, s.pending} {
			for _, pk := range queue {
				count += len(pk.Items)
			}
		}
	}
	if count != d.total {
		return fmt.Errorf("item count %d, expected %d", count, d.total)
	}
	return nil
}
