package room

import (
	"encoding/json"
	"log/slog"

	"tcgp-draft-server/catalog"
	"tcgp-draft-server/draft"
)

// Player statuses reported in players_updated.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// PlayerView is one roster entry as sent to clients.
type PlayerView struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// PlayersUpdatedMsg carries the roster in join order.
type PlayersUpdatedMsg struct {
	Type    string       `json:"type"`
	Players []PlayerView `json:"players"`
}

// SeatTakenMsg tells a connection that a newer one now holds its seat.
type SeatTakenMsg struct {
	Type string `json:"type"`
}

// DraftStartedMsg announces the draft, and each later round.
type DraftStartedMsg struct {
	Type  string `json:"type"`
	Round int    `json:"round"`
}

// PackReceivedMsg hands the recipient the pack they pick from next.
type PackReceivedMsg struct {
	Type   string          `json:"type"`
	PackID int             `json:"packId"`
	Round  int             `json:"round"`
	Cards  []*catalog.Item `json:"cards"`
}

// DraftCompleteMsg carries every final hand.
type DraftCompleteMsg struct {
	Type  string                     `json:"type"`
	Hands map[string][]*catalog.Item `json:"hands"`
	Order []string                   `json:"order"`
}

func encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshaling message", "tag", "room", "err", err)
		return nil
	}
	return data
}

func encodeEvent(e draft.Event) []byte {
	switch ev := e.(type) {
	case draft.RoundStarted:
		return encode(DraftStartedMsg{Type: "draft_started", Round: ev.Round})
	case draft.PackReceived:
		return encode(PackReceivedMsg{Type: "pack_received", PackID: ev.Pack.ID, Round: ev.Round, Cards: ev.Pack.Items})
	case draft.Completed:
		return encode(DraftCompleteMsg{Type: "draft_complete", Hands: ev.Hands, Order: ev.Order})
	default:
		slog.Error("unknown draft event", "tag", "room", "event", e)
		return nil
	}
}
