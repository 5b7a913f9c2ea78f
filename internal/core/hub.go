package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/borrelio/internal/metrics"
)

// Hub sequences every room mutation and signaling relay through one goroutine.
type Hub interface {
	// Run processes commands until ctx is cancelled, then releases every client.
	Run(ctx context.Context)
	// RegisterClient makes the client known to the hub and starts consuming its commands.
	RegisterClient(c *Client)
	// UnregisterClient removes the client from all of its rooms and closes its event stream.
	UnregisterClient(c *Client)
	// Rooms lists live rooms.
	Rooms(ctx context.Context) ([]RoomSummary, error)
	// Snapshot returns the presence snapshot of a live room.
	Snapshot(ctx context.Context, roomID string) (Snapshot, bool, error)
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

type hub struct {
	registry *Registry
	clients  map[string]*Client

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	queries    chan func()
	done       chan struct{}

	log *zerolog.Logger
}

// NewHub creates a hub backed by a fresh registry.
func NewHub(opts RegistryOptions, logger *zerolog.Logger) Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &hub{
		registry:   NewRegistry(opts),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 256),
		queries:    make(chan func()),
		done:       make(chan struct{}),
		log:        logger,
	}
}

func (h *hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case cc := <-h.commands:
			if h.clients[cc.client.ID] != cc.client {
				continue
			}
			h.dispatch(cc.client, cc.cmd)
		case q := <-h.queries:
			q()
		}
	}
}

func (h *hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.release()
	}
}

func (h *hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *hub) Rooms(ctx context.Context) ([]RoomSummary, error) {
	var out []RoomSummary
	err := h.inspect(ctx, func() {
		out = h.registry.Rooms()
	})
	return out, err
}

func (h *hub) Snapshot(ctx context.Context, roomID string) (Snapshot, bool, error) {
	var (
		snap Snapshot
		ok   bool
	)
	err := h.inspect(ctx, func() {
		if ok = h.registry.Exists(roomID); ok {
			snap = h.registry.Snapshot(roomID)
		}
	})
	return snap, ok, err
}

// inspect runs fn on the hub goroutine.
func (h *hub) inspect(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	q := func() {
		defer close(finished)
		fn()
	}

	select {
	case h.queries <- q:
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

func (h *hub) handleRegister(c *Client) {
	if _, exists := h.clients[c.ID]; exists {
		h.log.Warn().Str("client_id", c.ID).Msg("duplicate client id, rejecting registration")
		c.release()
		return
	}
	h.clients[c.ID] = c
	metrics.IncConnections()
	h.log.Debug().Str("client_id", c.ID).Msg("client registered")

	go h.pump(c)
	h.send(c, &Event{Kind: EventWelcome, User: c.ID})
}

func (h *hub) handleUnregister(c *Client) {
	if h.clients[c.ID] != c {
		return
	}
	for roomID := range c.Rooms {
		h.leave(c, roomID, false)
	}
	delete(h.clients, c.ID)
	c.release()
	metrics.DecConnections()
	h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
}

// pump forwards a client's commands into the shared queue, preserving their order.
func (h *hub) pump(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-h.done:
				return
			}
		case <-c.done:
			return
		case <-h.done:
			return
		}
	}
}

func (h *hub) dispatch(c *Client, cmd *Command) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().
				Interface("panic", r).
				Str("client_id", c.ID).
				Str("kind", cmd.Kind.String()).
				Msg("command handler failed")
		}
	}()

	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(c, cmd)
	case CommandLeaveRoom:
		h.leave(c, cmd.Room, true)
	case CommandUpdateLocation:
		h.handleUpdateLocation(c, cmd)
	case CommandUpdateName:
		h.handleUpdateName(c, cmd)
	case CommandStartCall:
		h.handleStartCall(c, cmd)
	case CommandOffer:
		h.relaySignal(c, cmd, EventOffer)
	case CommandAnswer:
		h.relaySignal(c, cmd, EventAnswer)
	case CommandICECandidate:
		h.relaySignal(c, cmd, EventICECandidate)
	default:
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeInvalidMessage, "unknown command")})
	}
}

// send queues an event without blocking; slow consumers lose the event.
func (h *hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
		metrics.EventDelivered()
	default:
		metrics.EventDropped()
		h.log.Warn().Str("client_id", c.ID).Str("event", ev.Kind.String()).Msg("client queue full, dropping event")
	}
}

func (h *hub) refreshGauges() {
	metrics.SetOccupancy(len(h.registry.rooms), h.registry.Participants())
}

func (h *hub) shutdown() {
	close(h.done)
	for id, c := range h.clients {
		c.release()
		delete(h.clients, id)
		metrics.DecConnections()
	}
	metrics.SetOccupancy(0, 0)
	h.log.Info().Msg("hub stopped")
}
