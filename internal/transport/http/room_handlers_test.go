package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vovakirdan/borrelio/internal/core"
)

// joinDirect puts a hub client into room without going through WebSocket.
func joinDirect(t *testing.T, hub core.Hub, id, room string) *core.Client {
	t.Helper()

	c := core.NewClient(id)
	hub.RegisterClient(c)
	c.Commands <- &core.Command{Kind: core.CommandJoinRoom, Room: room}
	for ev := range c.Events {
		if ev.Kind == core.EventPresence {
			return c
		}
	}
	t.Fatalf("client %s released before joining", id)
	return nil
}

func TestListRooms(t *testing.T) {
	ts := startTestServer(t, nil)
	joinDirect(t, ts.hub, "a", "beta")
	joinDirect(t, ts.hub, "b", "alpha")
	joinDirect(t, ts.hub, "c", "alpha")

	resp := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	var rooms []RoomResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %+v", rooms)
	}
	if rooms[0] != (RoomResponse{ID: "alpha", Participants: 2, Capacity: 5}) {
		t.Fatalf("unexpected first room: %+v", rooms[0])
	}
}

func TestListRoomsEmpty(t *testing.T) {
	ts := startTestServer(t, nil)

	resp := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

	if resp.Code != http.StatusOK || strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Fatalf("unexpected response: %d %s", resp.Code, resp.Body.String())
	}
}

func TestGetRoom(t *testing.T) {
	ts := startTestServer(t, nil)
	joinDirect(t, ts.hub, "a", "lobby")

	resp := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/rooms/lobby", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	var room RoomDetailResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &room); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if room.ID != "lobby" || room.Users["a"].Name != "User" {
		t.Fatalf("unexpected room: %+v", room)
	}

	missing := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/rooms/nowhere", nil))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
}

func TestConfigEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)

	resp := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}

	var cfg ConfigResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cfg.ICEServers) != 5 || !strings.HasPrefix(cfg.ICEServers[0], "stun:") {
		t.Fatalf("unexpected ice servers: %v", cfg.ICEServers)
	}
	if cfg.MaxRoomSize != 5 || cfg.Proximity.Far != 350 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)
	joinDirect(t, ts.hub, "a", "metered")

	resp := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	body := resp.Body.String()
	for _, name := range []string{"borrelio_ws_connections", "borrelio_joins_total", "borrelio_rooms"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}
