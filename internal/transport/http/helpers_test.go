package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/borrelio/internal/config"
	"github.com/vovakirdan/borrelio/internal/core"
	"github.com/vovakirdan/borrelio/internal/proto"
)

type testServer struct {
	*httptest.Server
	hub core.Hub
}

// startTestServer runs a hub and HTTP server until the test ends. mutate may
// adjust the configuration before the server is built.
func startTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	disabledLogger := zerolog.New(nil)

	opts := core.DefaultRegistryOptions()
	opts.MaxRoomSize = cfg.MaxRoomSize
	hub := core.NewHub(opts, &disabledLogger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(hub, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})

	return &testServer{Server: ts, hub: hub}
}

// dial opens a WebSocket and returns it with the id from its welcome event.
func dial(t *testing.T, ctx context.Context, ts *testServer) (*websocket.Conn, proto.WelcomeData) {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	env := readEvent(t, ctx, conn, proto.EventWelcome)
	var welcome proto.WelcomeData
	if err := json.Unmarshal(env.Data, &welcome); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.UserID == "" {
		t.Fatal("welcome without user id")
	}
	return conn, welcome
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	in, err := proto.NewInbound(typ, data)
	if err != nil {
		t.Fatalf("build %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, in); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.OutboundEnvelope {
	t.Helper()

	var env proto.OutboundEnvelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return env
}

// readEvent skips frames until the named event arrives.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string) proto.OutboundEnvelope {
	t.Helper()

	for {
		env := readOutbound(t, ctx, conn)
		if env.Type == proto.OutboundTypeEvent && env.Event == name {
			return env
		}
	}
}

// readError skips frames until an error envelope arrives.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) *proto.Error {
	t.Helper()

	for {
		env := readOutbound(t, ctx, conn)
		if env.Type == proto.OutboundTypeError {
			if env.Error == nil {
				t.Fatal("error envelope without error body")
			}
			return env.Error
		}
	}
}

func decodeUsers(t *testing.T, env proto.OutboundEnvelope) proto.Users {
	t.Helper()

	var users proto.Users
	if err := json.Unmarshal(env.Data, &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	return users
}
