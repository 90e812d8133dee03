package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tcgp-draft-server/catalog"
	"tcgp-draft-server/config"
)

// RoomService defines what the Hub needs from the room registry.
type RoomService interface {
	Attach(roomID, name, connID string, send chan []byte) error
	Detach(roomID, connID string)
	Leave(roomID, name, connID string) error
	Start(roomID, name, connID string, settings catalog.Settings) error
	ReadyForPack(roomID, name, connID string) error
	Pick(roomID, name, connID string, index int) error
}

// TicketVerifier checks lobby-issued seat tickets.
type TicketVerifier interface {
	Verify(ticket, roomID, name string) error
}

// Hub maintains the set of active clients and routes messages.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Rooms      RoomService
	Tickets    TicketVerifier
	Config     *config.Config

	upgrader websocket.Upgrader
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, rooms RoomService, tickets TicketVerifier) *Hub {
	h := &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Rooms:      rooms,
		Tickets:    tickets,
		Config:     cfg,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if h.Config.AllowedOrigin == "" || h.Config.AllowedOrigin == "*" {
		return true
	}
	return r.Header.Get("Origin") == h.Config.AllowedOrigin
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "ws")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Debug("client connected", "tag", "ws", "conn", client.ID, "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				slog.Debug("client disconnected", "tag", "ws", "conn", client.ID, "clients", len(h.Clients))

				// Keep the seat; the player may reconnect under the same name.
				if client.RoomID != "" {
					go h.Rooms.Detach(client.RoomID, client.ID)
				}
			}
		}
	}
}

// NewClient creates a client for conn with its own join rate limiter.
func (h *Hub) NewClient(conn *websocket.Conn) *Client {
	return &Client{
		Hub:         h,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		ID:          uuid.NewString(),
		joinLimiter: rate.NewLimiter(rate.Every(h.Config.JoinRateLimit()), 1),
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	client := h.NewClient(conn)
	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
