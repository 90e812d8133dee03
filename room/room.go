package room

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"tcgp-draft-server/catalog"
	"tcgp-draft-server/draft"
	"tcgp-draft-server/drafterr"
	"tcgp-draft-server/wsutil"
)

// ActionType enumerates the kinds of actions a room can process.
type ActionType int

const (
	ActionJoin ActionType = iota
	ActionAttach
	ActionDetach
	ActionLeave
	ActionStart
	ActionReadyForPack
	ActionPick
	ActionEmptyTimeout // internal: grace period after the roster emptied
	ActionReap         // internal: idle sweep found the room old and empty
)

// Action is a request sent into the room's action channel.
type Action struct {
	Type     ActionType
	Name     string
	ConnID   string      // sender's connection; checked for seat actions
	Send     chan []byte // for Attach
	Index    int         // for Pick
	Settings catalog.Settings
	MaxAge   time.Duration // for Reap
	Reply    chan error    // buffered; nil for fire-and-forget actions
}

// Player is a roster entry. Send is nil while the player is offline.
type Player struct {
	Name   string
	ConnID string
	Send   chan []byte
}

// Online reports whether the player has a live connection.
func (p *Player) Online() bool { return p.Send != nil }

// Summary is a lock-free snapshot of a room for listing and reaping.
type Summary struct {
	ID              string    `json:"roomId"`
	Host            string    `json:"host"`
	PlayerCount     int       `json:"playerCount"`
	DraftInProgress bool      `json:"draftInProgress"`
	RosterSize      int       `json:"-"`
	CreatedAt       time.Time `json:"-"`
}

// Result is a completed draft handed to the archive.
type Result struct {
	RoomID      string
	Host        string
	CompletedAt time.Time
	Order       []string
	Hands       map[string][]*catalog.Item
}

// Room owns one roster and, once started, one draft. All state is mutated
// by the Run goroutine only.
type Room struct {
	ID        string
	Host      string
	CreatedAt time.Time

	secretHash []byte
	players    []*Player
	draft      *draft.Draft
	closed     bool

	deps             *Registry
	emptyTimerCancel chan struct{}
	summary          atomic.Pointer[Summary]

	Actions chan Action
	Done    chan struct{}
}

func newRoom(id, host string, secretHash []byte, deps *Registry) *Room {
	rm := &Room{
		ID:         id,
		Host:       host,
		CreatedAt:  deps.now(),
		secretHash: secretHash,
		players:    []*Player{{Name: host}},
		deps:       deps,
		Actions:    make(chan Action, 16),
		Done:       make(chan struct{}),
	}
	rm.publish()
	return rm
}

// Run is the room loop. It processes actions sequentially until the room
// closes. It should be run as a goroutine.
func (rm *Room) Run() {
	defer close(rm.Done)
	for {
		action := <-rm.Actions
		err := rm.handle(action)
		rm.publish()
		if rm.closed {
			rm.disarmEmptyTimer()
			rm.deps.remove(rm.ID)
		}
		if action.Reply != nil {
			action.Reply <- err
		}
		if rm.closed {
			slog.Info("room closed", "tag", "room", "room", rm.ID)
			return
		}
	}
}

// Summary returns the latest snapshot.
func (rm *Room) Summary() Summary { return *rm.summary.Load() }

// do sends an action and waits for the room to process it.
func (rm *Room) do(a Action) error {
	a.Reply = make(chan error, 1)
	select {
	case rm.Actions <- a:
	case <-rm.Done:
		return drafterr.ErrUnknownRoom
	}
	select {
	case err := <-a.Reply:
		return err
	case <-rm.Done:
		select {
		case err := <-a.Reply:
			return err
		default:
			return drafterr.ErrUnknownRoom
		}
	}
}

func (rm *Room) handle(a Action) error {
	switch a.Type {
	case ActionJoin:
		return rm.handleJoin(a.Name)
	case ActionAttach:
		return rm.handleAttach(a.Name, a.ConnID, a.Send)
	case ActionDetach:
		rm.handleDetach(a.ConnID)
		return nil
	case ActionLeave:
		if err := rm.holds(a.Name, a.ConnID); err != nil {
			return err
		}
		return rm.handleLeave(a.Name)
	case ActionStart:
		if err := rm.holds(a.Name, a.ConnID); err != nil {
			return err
		}
		return rm.handleStart(a.Name, a.Settings)
	case ActionReadyForPack:
		if err := rm.holds(a.Name, a.ConnID); err != nil {
			return err
		}
		return rm.handleReadyForPack(a.Name)
	case ActionPick:
		if err := rm.holds(a.Name, a.ConnID); err != nil {
			return err
		}
		return rm.handlePick(a.Name, a.Index)
	case ActionEmptyTimeout:
		if len(rm.players) == 0 {
			rm.closed = true
		}
		return nil
	case ActionReap:
		if len(rm.players) == 0 && rm.deps.now().Sub(rm.CreatedAt) > a.MaxAge {
			rm.closed = true
		}
		return nil
	default:
		return fmt.Errorf("unknown action %d", a.Type)
	}
}

// holds checks that connID is the connection currently bound to name.
// An offline player matches the empty connID.
func (rm *Room) holds(name, connID string) error {
	p := rm.player(name)
	if p == nil {
		return drafterr.ErrUnknownPlayer
	}
	if p.ConnID != connID {
		return drafterr.ErrSeatSuperseded
	}
	return nil
}

func (rm *Room) handleJoin(name string) error {
	if rm.draft != nil {
		return drafterr.ErrDraftInProgress
	}
	if rm.player(name) != nil {
		return drafterr.ErrDuplicateName
	}
	rm.players = append(rm.players, &Player{Name: name})
	rm.disarmEmptyTimer()
	slog.Info("player joined", "tag", "room", "room", rm.ID, "player", name)
	rm.broadcastPlayers()
	return nil
}

func (rm *Room) handleAttach(name, connID string, send chan []byte) error {
	p := rm.player(name)
	if p == nil {
		return drafterr.ErrUnknownPlayer
	}
	if p.Send != nil && p.ConnID != connID {
		wsutil.SafeSend(p.Send, encode(SeatTakenMsg{Type: "seat_taken"}))
		slog.Info("seat taken over", "tag", "room", "room", rm.ID, "player", name, "old", p.ConnID, "new", connID)
	}
	p.ConnID = connID
	p.Send = send
	rm.disarmEmptyTimer()
	rm.broadcastPlayers()
	if rm.draft != nil {
		if err := rm.draft.Resume(name); err != nil {
			return err
		}
		wsutil.SafeSend(send, encode(DraftStartedMsg{Type: "draft_started", Round: rm.draft.Round()}))
	}
	slog.Info("player attached", "tag", "room", "room", rm.ID, "player", name)
	return nil
}

func (rm *Room) handleDetach(connID string) {
	for _, p := range rm.players {
		if p.ConnID != connID || connID == "" {
			continue
		}
		rm.goOffline(p)
		rm.broadcastPlayers()
		slog.Info("player detached", "tag", "room", "room", rm.ID, "player", p.Name)
		return
	}
}

func (rm *Room) goOffline(p *Player) {
	p.ConnID = ""
	p.Send = nil
	if rm.draft != nil {
		rm.draft.Suspend(p.Name)
	}
}

func (rm *Room) handleLeave(name string) error {
	idx := rm.playerIndex(name)
	if idx < 0 {
		return drafterr.ErrUnknownPlayer
	}
	if rm.draft != nil {
		// Seats are fixed once the draft starts; leaving only drops the connection.
		rm.goOffline(rm.players[idx])
		rm.broadcastPlayers()
		return nil
	}
	rm.players = append(rm.players[:idx], rm.players[idx+1:]...)
	slog.Info("player left", "tag", "room", "room", rm.ID, "player", name)
	if len(rm.players) == 0 {
		rm.armEmptyTimer()
		return nil
	}
	rm.broadcastPlayers()
	return nil
}

func (rm *Room) handleStart(name string, settings catalog.Settings) error {
	if rm.draft != nil {
		return drafterr.ErrDraftInProgress
	}
	if len(rm.players) == 0 || rm.players[0].Name != name {
		return drafterr.ErrNotHost
	}
	if len(settings.Expansions) == 0 {
		return drafterr.ErrNoExpansions
	}
	roster := make([]draft.Participant, len(rm.players))
	for i, p := range rm.players {
		if !p.Online() {
			return fmt.Errorf("%w: %s is offline", draft.ErrPlayersNotReady, p.Name)
		}
		roster[i] = draft.Participant{Name: p.Name, Online: true}
	}

	filtered := rm.deps.catalog.Filter(settings.Filter())
	pool, err := rm.deps.pools.Generate(filtered, draft.HandSize*len(roster))
	if err != nil {
		return err
	}
	d, outs, err := draft.New(pool, roster)
	if err != nil {
		return err
	}
	rm.draft = d
	slog.Info("draft started", "tag", "room", "room", rm.ID, "players", len(roster), "pool", len(pool))
	rm.deliver(outs)
	return nil
}

func (rm *Room) handleReadyForPack(name string) error {
	if rm.draft == nil {
		return drafterr.ErrNoDraft
	}
	outs, err := rm.draft.ReadyForPack(name)
	if err != nil {
		return err
	}
	rm.deliver(outs)
	return nil
}

func (rm *Room) handlePick(name string, index int) error {
	if rm.draft == nil {
		return drafterr.ErrNoDraft
	}
	outs, err := rm.draft.Pick(name, index)
	if errors.Is(err, draft.ErrStalePick) {
		slog.Warn("stale pick ignored", "tag", "room", "room", rm.ID, "player", name, "index", index)
		return nil
	}
	if err != nil {
		return err
	}
	rm.deliver(outs)
	if rm.draft.Finished() {
		rm.complete(outs)
	}
	return nil
}

func (rm *Room) complete(outs []draft.Output) {
	for _, o := range outs {
		c, ok := o.Event.(draft.Completed)
		if !ok {
			continue
		}
		res := Result{RoomID: rm.ID, Host: rm.Host, CompletedAt: rm.deps.now(), Order: c.Order, Hands: c.Hands}
		if hook := rm.deps.OnDraftComplete; hook != nil {
			go hook(res)
		}
	}
	slog.Info("draft complete", "tag", "room", "room", rm.ID)
	rm.closed = true
}

// deliver pushes draft outputs to connected players. Offline recipients are skipped.
func (rm *Room) deliver(outs []draft.Output) {
	for _, o := range outs {
		data := encodeEvent(o.Event)
		if data == nil {
			continue
		}
		if o.Broadcast {
			rm.broadcast(data)
			continue
		}
		if p := rm.player(o.Recipient); p != nil && p.Online() {
			wsutil.SafeSend(p.Send, data)
		}
	}
}

func (rm *Room) broadcast(data []byte) {
	for _, p := range rm.players {
		if p.Online() {
			wsutil.SafeSend(p.Send, data)
		}
	}
}

func (rm *Room) broadcastPlayers() {
	views := make([]PlayerView, len(rm.players))
	for i, p := range rm.players {
		status := StatusOffline
		if p.Online() {
			status = StatusOnline
		}
		views[i] = PlayerView{Name: p.Name, Status: status}
	}
	rm.broadcast(encode(PlayersUpdatedMsg{Type: "players_updated", Players: views}))
}

func (rm *Room) player(name string) *Player {
	if i := rm.playerIndex(name); i >= 0 {
		return rm.players[i]
	}
	return nil
}

func (rm *Room) playerIndex(name string) int {
	for i, p := range rm.players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// armEmptyTimer schedules deletion once the grace period passes. Cancels any existing timer first.
func (rm *Room) armEmptyTimer() {
	rm.disarmEmptyTimer()
	rm.emptyTimerCancel = make(chan struct{})
	cancel := rm.emptyTimerCancel
	grace := rm.deps.emptyGrace
	go func() {
		select {
		case <-time.After(grace):
			select {
			case rm.Actions <- Action{Type: ActionEmptyTimeout}:
			case <-rm.Done:
			}
		case <-cancel:
		}
	}()
}

// disarmEmptyTimer closes the cancel channel so the timer goroutine exits. Safe if already nil.
func (rm *Room) disarmEmptyTimer() {
	if rm.emptyTimerCancel != nil {
		close(rm.emptyTimerCancel)
		rm.emptyTimerCancel = nil
	}
}

func (rm *Room) publish() {
	online := 0
	for _, p := range rm.players {
		if p.Online() {
			online++
		}
	}
	rm.summary.Store(&Summary{
		ID:              rm.ID,
		Host:            rm.Host,
		PlayerCount:     online,
		DraftInProgress: rm.draft != nil,
		RosterSize:      len(rm.players),
		CreatedAt:       rm.CreatedAt,
	})
}
