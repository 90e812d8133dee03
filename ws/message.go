package ws

import (
	"encoding/json"

	"tcgp-draft-server/catalog"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// JoinRoomMsg binds this connection to a seat. Ticket comes from the lobby.
type JoinRoomMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Ticket string `json:"ticket"`
}

// StartDraftMsg is sent by the host. Settings default when omitted.
type StartDraftMsg struct {
	Type     string            `json:"type"`
	RoomID   string            `json:"roomId"`
	Settings *catalog.Settings `json:"settings,omitempty"`
}

// RoomMsg covers ready_for_pack and leave_room, which carry only the room.
type RoomMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// PickCardMsg takes the card at Index from the current pack.
type PickCardMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Index  int    `json:"index"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DraftErrorMsg reports a failed draft operation (start, ready, pick).
type DraftErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RoomNotFoundMsg tells the client to return to the lobby.
type RoomNotFoundMsg struct {
	Type string `json:"type"`
}
