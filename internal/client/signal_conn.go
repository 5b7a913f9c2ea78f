package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/borrelio/internal/proto"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// SignalConn is the websocket link to the signaling server.
type SignalConn struct {
	conn     *websocket.Conn
	incoming chan proto.OutboundEnvelope
	outgoing chan proto.Inbound
	done     chan struct{}
	once     sync.Once
	log      *zerolog.Logger
}

// Dial connects to a signaling endpoint such as ws://host:8080/ws.
func Dial(ctx context.Context, endpoint string, logger *zerolog.Logger) (*SignalConn, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s := &SignalConn{
		conn:     conn,
		incoming: make(chan proto.OutboundEnvelope, 16),
		outgoing: make(chan proto.Inbound, 16),
		done:     make(chan struct{}),
		log:      logger,
	}
	go s.readPump()
	go s.writePump()
	return s, nil
}

func (s *SignalConn) readPump() {
	defer func() {
		_ = s.conn.Close()
		close(s.incoming)
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	for {
		var env proto.OutboundEnvelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn().Err(err).Msg("signaling read failed")
			}
			return
		}
		select {
		case s.incoming <- env:
		case <-s.done:
			return
		}
	}
}

func (s *SignalConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.outgoing:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.log.Debug().Err(err).Str("type", msg.Type).Msg("signaling write failed")
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
			return
		}
	}
}

// Send queues a message for the server.
func (s *SignalConn) Send(in proto.Inbound) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.outgoing <- in:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Incoming yields server messages and is closed when the link drops.
func (s *SignalConn) Incoming() <-chan proto.OutboundEnvelope {
	return s.incoming
}

// Close ends the connection. It is safe to call more than once.
func (s *SignalConn) Close() {
	s.once.Do(func() { close(s.done) })
}

// WebSocketURL turns a server base URL such as http://localhost:8080 into
// its signaling endpoint.
func WebSocketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", base)
	}
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	}
	return u.String(), nil
}
