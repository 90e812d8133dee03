package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"tcgp-draft-server/api"
	"tcgp-draft-server/cli"
	"tcgp-draft-server/config"
	"tcgp-draft-server/storage"
)

// setupTestServer wires the full stack against the bundled catalog and a temp SQLite archive.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Defaults()
	cfg.CatalogPath = filepath.Join("data", "cards.yaml")
	cfg.SecretHashCost = bcrypt.MinCost
	cfg.TicketSecret = "integration-secret"
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "drafts.db")

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := cli.NewServer(ctx, cfg)
	if err != nil {
		cancel()
		t.Fatalf("new server: %v", err)
	}
	var g errgroup.Group
	srv.Run(ctx, &g)

	server := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		server.Close()
		cancel()
		_ = g.Wait()
		_ = srv.History.Close()
	})
	return server
}

func postJSON(t *testing.T, server *httptest.Server, path string, body any, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

// connectWS creates a WebSocket connection to the test server.
func connectWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(conn *websocket.Conn) (map[string]any, error) {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", data, err)
	}
	return msg, nil
}

// readUntil skips messages until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	for {
		msg, err := readMsg(conn)
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		if msg["type"] == want {
			return msg
		}
	}
}

func sendMsg(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

type seat struct {
	name   string
	ticket string
	conn   *websocket.Conn
}

// openRoom hosts a room for names[0], joins the others and attaches everyone.
func openRoom(t *testing.T, server *httptest.Server, names ...string) (string, []*seat) {
	t.Helper()
	var host api.HostResponse
	if code := postJSON(t, server, "/host", api.HostRequest{Username: names[0], RoomPassword: "pikachu"}, &host); code != http.StatusOK {
		t.Fatalf("host: status %d", code)
	}
	seats := []*seat{{name: names[0], ticket: host.Ticket}}
	for _, name := range names[1:] {
		var joined api.JoinResponse
		if code := postJSON(t, server, "/join", api.JoinRequest{Username: name, RoomID: host.RoomID, RoomPassword: "pikachu"}, &joined); code != http.StatusOK {
			t.Fatalf("join %s: status %d", name, code)
		}
		seats = append(seats, &seat{name: name, ticket: joined.Ticket})
	}
	for i, s := range seats {
		s.conn = connectWS(t, server)
		sendMsg(t, s.conn, map[string]string{"type": "join_room", "roomId": host.RoomID, "name": s.name, "ticket": s.ticket})
		// Wait until everyone attached so far shows as online.
		for {
			msg := readUntil(t, s.conn, "players_updated")
			online := 0
			for _, p := range msg["players"].([]any) {
				if p.(map[string]any)["status"] == "online" {
					online++
				}
			}
			if online == i+1 {
				break
			}
		}
	}
	return host.RoomID, seats
}

// draftUntilDone picks the first card of every pack until the draft completes.
func draftUntilDone(roomID string, s *seat) (map[string]any, error) {
	if err := s.conn.WriteJSON(map[string]string{"type": "ready_for_pack", "roomId": roomID}); err != nil {
		return nil, err
	}
	for {
		msg, err := readMsg(s.conn)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		switch msg["type"] {
		case "pack_received":
			if err := s.conn.WriteJSON(map[string]any{"type": "pick_card", "roomId": roomID, "index": 0}); err != nil {
				return nil, err
			}
		case "draft_complete":
			return msg, nil
		case "draft_error", "error", "room_not_found":
			return nil, fmt.Errorf("%s: unexpected %v", s.name, msg)
		}
	}
}

func TestIntegration_LobbyRejections(t *testing.T) {
	server := setupTestServer(t)

	var host api.HostResponse
	postJSON(t, server, "/host", api.HostRequest{Username: "Alice", RoomPassword: "pikachu"}, &host)

	tests := []struct {
		name string
		req  api.JoinRequest
		want int
	}{
		{"unknown room", api.JoinRequest{Username: "Bob", RoomID: "nope", RoomPassword: "pikachu"}, http.StatusNotFound},
		{"bad password", api.JoinRequest{Username: "Bob", RoomID: host.RoomID, RoomPassword: "raichu"}, http.StatusForbidden},
		{"duplicate name", api.JoinRequest{Username: " Alice ", RoomID: host.RoomID, RoomPassword: "pikachu"}, http.StatusConflict},
		{"blank name", api.JoinRequest{Username: "  ", RoomID: host.RoomID, RoomPassword: "pikachu"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if code := postJSON(t, server, "/join", tt.req, nil); code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, code)
		}
	}

	conn := connectWS(t, server)
	sendMsg(t, conn, map[string]string{"type": "join_room", "roomId": host.RoomID, "name": "Alice", "ticket": "forged"})
	if msg := readUntil(t, conn, "error"); !strings.Contains(msg["message"].(string), "ticket") {
		t.Errorf("expected ticket rejection, got %v", msg)
	}
}

func TestIntegration_StartRequiresHost(t *testing.T) {
	server := setupTestServer(t)
	roomID, seats := openRoom(t, server, "Alice", "Bob")

	sendMsg(t, seats[1].conn, map[string]string{"type": "start_draft", "roomId": roomID})
	msg := readUntil(t, seats[1].conn, "draft_error")
	if msg["message"] == "" {
		t.Error("expected a reason for the rejected start")
	}
}

func TestIntegration_FullDraft(t *testing.T) {
	server := setupTestServer(t)
	roomID, seats := openRoom(t, server, "Alice", "Bob")

	resp, err := http.Get(server.URL + "/rooms")
	if err != nil {
		t.Fatal(err)
	}
	var rooms []map[string]any
	json.NewDecoder(resp.Body).Decode(&rooms)
	resp.Body.Close()
	if len(rooms) != 1 || rooms[0]["playerCount"] != float64(2) {
		t.Fatalf("expected one room with two online players, got %v", rooms)
	}

	sendMsg(t, seats[0].conn, map[string]string{"type": "start_draft", "roomId": roomID})
	for _, s := range seats {
		if msg := readUntil(t, s.conn, "draft_started"); msg["round"] != float64(0) {
			t.Fatalf("expected round 0, got %v", msg["round"])
		}
	}

	results := make([]map[string]any, len(seats))
	var g errgroup.Group
	for i, s := range seats {
		g.Go(func() error {
			msg, err := draftUntilDone(roomID, s)
			results[i] = msg
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	for i, res := range results {
		hands := res["hands"].(map[string]any)
		for _, s := range seats {
			if n := len(hands[s.name].([]any)); n != 30 {
				t.Errorf("seat %d: expected %s to hold 30 cards, got %d", i, s.name, n)
			}
		}
		order := res["order"].([]any)
		if len(order) != 2 || order[0] != "Alice" || order[1] != "Bob" {
			t.Errorf("unexpected seat order %v", order)
		}
	}

	// The room is gone once the draft completes.
	sendMsg(t, seats[0].conn, map[string]string{"type": "ready_for_pack", "roomId": roomID})
	readUntil(t, seats[0].conn, "room_not_found")

	// The archive is written asynchronously.
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(server.URL + "/history")
		if err != nil {
			t.Fatal(err)
		}
		var history []storage.DraftRecord
		json.NewDecoder(resp.Body).Decode(&history)
		resp.Body.Close()
		if len(history) == 1 {
			if history[0].RoomID != roomID || len(history[0].Hands["Bob"]) != 30 {
				t.Errorf("unexpected archive record %+v", history[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected one archived draft, got %d", len(history))
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestIntegration_ReconnectResendsPack(t *testing.T) {
	server := setupTestServer(t)
	roomID, seats := openRoom(t, server, "Alice", "Bob")

	sendMsg(t, seats[0].conn, map[string]string{"type": "start_draft", "roomId": roomID})
	readUntil(t, seats[1].conn, "draft_started")
	sendMsg(t, seats[1].conn, map[string]string{"type": "ready_for_pack", "roomId": roomID})
	first := readUntil(t, seats[1].conn, "pack_received")

	seats[1].conn.Close()
	// Wait until the room has seen Bob go offline.
	for {
		msg := readUntil(t, seats[0].conn, "players_updated")
		if msg["players"].([]any)[1].(map[string]any)["status"] == "offline" {
			break
		}
	}

	conn := connectWS(t, server)
	sendMsg(t, conn, map[string]string{"type": "join_room", "roomId": roomID, "name": "Bob", "ticket": seats[1].ticket})
	readUntil(t, conn, "draft_started")
	sendMsg(t, conn, map[string]string{"type": "ready_for_pack", "roomId": roomID})
	again := readUntil(t, conn, "pack_received")

	if again["packId"] != first["packId"] || len(again["cards"].([]any)) != len(first["cards"].([]any)) {
		t.Errorf("expected the same pack after reconnect, got %v then %v", first["packId"], again["packId"])
	}
}
