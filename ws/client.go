package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tcgp-draft-server/catalog"
	"tcgp-draft-server/drafterr"
	"tcgp-draft-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and the hub.
// RoomID and Name are set once join_room succeeds.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	ID     string
	RoomID string
	Name   string

	joinLimiter *rate.Limiter
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "conn", c.ID, "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "join_room":
		c.handleJoinRoom(envelope.Raw)
	case "start_draft":
		c.handleStartDraft(envelope.Raw)
	case "ready_for_pack":
		c.handleReadyForPack(envelope.Raw)
	case "pick_card":
		c.handlePickCard(envelope.Raw)
	case "leave_room":
		c.handleLeaveRoom(envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleJoinRoom(raw json.RawMessage) {
	if !c.joinLimiter.Allow() {
		slog.Debug("join_room rate limited", "tag", "ws", "conn", c.ID)
		return
	}
	var msg JoinRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid join_room message.")
		return
	}
	if err := c.Hub.Tickets.Verify(msg.Ticket, msg.RoomID, msg.Name); err != nil {
		slog.Info("rejected seat ticket", "tag", "ws", "conn", c.ID, "room", msg.RoomID, "err", err)
		c.sendError(drafterr.ErrInvalidTicket.Error())
		return
	}

	if c.RoomID != "" && (c.RoomID != msg.RoomID || c.Name != msg.Name) {
		c.Hub.Rooms.Detach(c.RoomID, c.ID)
		c.RoomID, c.Name = "", ""
	}
	if err := c.Hub.Rooms.Attach(msg.RoomID, msg.Name, c.ID, c.Send); err != nil {
		c.sendRoomError(err, false)
		return
	}
	c.RoomID, c.Name = msg.RoomID, msg.Name
}

func (c *Client) handleStartDraft(raw json.RawMessage) {
	var msg StartDraftMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid start_draft message.")
		return
	}
	if !c.inRoom(msg.RoomID) {
		return
	}
	settings := catalog.DefaultSettings()
	if msg.Settings != nil {
		settings = *msg.Settings
	}
	if err := c.Hub.Rooms.Start(c.RoomID, c.Name, c.ID, settings); err != nil {
		c.sendRoomError(err, true)
	}
}

func (c *Client) handleReadyForPack(raw json.RawMessage) {
	var msg RoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid ready_for_pack message.")
		return
	}
	if !c.inRoom(msg.RoomID) {
		return
	}
	if err := c.Hub.Rooms.ReadyForPack(c.RoomID, c.Name, c.ID); err != nil {
		c.sendRoomError(err, true)
	}
}

func (c *Client) handlePickCard(raw json.RawMessage) {
	var msg PickCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid pick_card message.")
		return
	}
	if !c.inRoom(msg.RoomID) {
		return
	}
	if err := c.Hub.Rooms.Pick(c.RoomID, c.Name, c.ID, msg.Index); err != nil {
		c.sendRoomError(err, true)
	}
}

func (c *Client) handleLeaveRoom(raw json.RawMessage) {
	var msg RoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid leave_room message.")
		return
	}
	if !c.inRoom(msg.RoomID) {
		return
	}
	err := c.Hub.Rooms.Leave(c.RoomID, c.Name, c.ID)
	if err != nil && !errors.Is(err, drafterr.ErrUnknownRoom) && !errors.Is(err, drafterr.ErrSeatSuperseded) {
		c.sendError(err.Error())
	}
	c.RoomID, c.Name = "", ""
}

// inRoom reports whether this connection is seated in roomID, telling the client otherwise.
func (c *Client) inRoom(roomID string) bool {
	if c.RoomID == "" || c.RoomID != roomID {
		c.sendError("You are not in this room.")
		return false
	}
	return true
}

func (c *Client) sendRoomError(err error, draftOp bool) {
	switch {
	case errors.Is(err, drafterr.ErrUnknownRoom):
		c.send(RoomNotFoundMsg{Type: "room_not_found"})
		c.RoomID, c.Name = "", ""
	case errors.Is(err, drafterr.ErrSeatSuperseded):
		c.sendError(err.Error())
		c.RoomID, c.Name = "", ""
	case draftOp:
		c.send(DraftErrorMsg{Type: "draft_error", Message: err.Error()})
	default:
		c.sendError(err.Error())
	}
}

func (c *Client) sendError(message string) {
	c.send(ErrorMsg{Type: "error", Message: message})
}

func (c *Client) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshaling message", "tag", "ws", "err", err)
		return
	}
	wsutil.SafeSend(c.Send, data)
}
