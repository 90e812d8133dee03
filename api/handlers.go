package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"tcgp-draft-server/config"
	"tcgp-draft-server/drafterr"
	"tcgp-draft-server/room"
	"tcgp-draft-server/storage"
)

// LobbyService defines what the lobby needs from the room registry.
type LobbyService interface {
	NormalizeName(name string) (string, error)
	Create(host, secret string) (string, error)
	Join(roomID, name, secret string) (string, error)
	List() []room.Summary
}

// TicketIssuer signs seat tickets for the WebSocket join_room message.
type TicketIssuer interface {
	Issue(roomID, name string) (string, error)
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config  *config.Config
	Rooms   LobbyService
	Tickets TicketIssuer
	History storage.ResultStore // nil when no archive is configured
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, rooms LobbyService, tickets TicketIssuer, history storage.ResultStore) *Handler {
	return &Handler{
		Config:  cfg,
		Rooms:   rooms,
		Tickets: tickets,
		History: history,
	}
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request, origin string) bool {
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// HostRequest is the body of POST /host.
type HostRequest struct {
	Username     string `json:"username"`
	RoomPassword string `json:"roomPassword"`
}

// HostResponse carries the new room id and the host's seat ticket.
type HostResponse struct {
	RoomID string `json:"roomId"`
	Ticket string `json:"ticket"`
}

// JoinRequest is the body of POST /join.
type JoinRequest struct {
	Username     string `json:"username"`
	RoomID       string `json:"roomId"`
	RoomPassword string `json:"roomPassword"`
}

// JoinResponse carries the seat ticket for the joined player.
type JoinResponse struct {
	Message string `json:"message"`
	Ticket  string `json:"ticket"`
}

// Host creates a room with the caller as its first player.
func (h *Handler) Host(w http.ResponseWriter, r *http.Request) {
	var req HostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	name, err := h.Rooms.NormalizeName(req.Username)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	roomID, err := h.Rooms.Create(name, req.RoomPassword)
	if err != nil {
		slog.Error("create room failed", "tag", "api", "err", err)
		writeError(w, err.Error(), statusFor(err))
		return
	}
	ticket, err := h.Tickets.Issue(roomID, name)
	if err != nil {
		slog.Error("issue ticket failed", "tag", "api", "room", roomID, "err", err)
		writeError(w, "failed to issue ticket", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, HostResponse{RoomID: roomID, Ticket: ticket})
}

// Join adds the caller to an existing room after checking the room password.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	name, err := h.Rooms.Join(req.RoomID, req.Username, req.RoomPassword)
	if err != nil {
		slog.Info("join rejected", "tag", "api", "room", req.RoomID, "err", err)
		writeError(w, err.Error(), statusFor(err))
		return
	}
	ticket, err := h.Tickets.Issue(req.RoomID, name)
	if err != nil {
		slog.Error("issue ticket failed", "tag", "api", "room", req.RoomID, "err", err)
		writeError(w, "failed to issue ticket", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, JoinResponse{Message: "Joined room " + req.RoomID, Ticket: ticket})
}

// ListRooms lists open rooms, oldest first.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Rooms.List())
}

// ListHistory returns archived drafts, newest first.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	list := []storage.DraftRecord{}
	if h.History != nil {
		var err error
		list, err = h.History.List(r.Context(), limit, offset)
		if err != nil {
			slog.Error("list history failed", "tag", "api", "err", err)
			writeError(w, "failed to load history", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, list)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, drafterr.ErrUnknownRoom):
		return http.StatusNotFound
	case errors.Is(err, drafterr.ErrBadSecret):
		return http.StatusForbidden
	case errors.Is(err, drafterr.ErrDuplicateName), errors.Is(err, drafterr.ErrDraftInProgress):
		return http.StatusConflict
	case errors.Is(err, drafterr.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, errorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "tag", "api", "err", err)
	}
}
