package core

import "github.com/vovakirdan/borrelio/internal/metrics"

// handleStartCall tells every other occupant that c is ready for offers.
func (h *hub) handleStartCall(c *Client, cmd *Command) {
	if !h.registry.Contains(cmd.Room, c.ID) {
		h.dropStale(c, cmd)
		return
	}

	ev := &Event{Kind: EventStartCall, Room: cmd.Room, User: c.ID}
	for _, id := range h.registry.Members(cmd.Room) {
		if id == c.ID {
			continue
		}
		if peer, ok := h.clients[id]; ok {
			h.send(peer, ev)
		}
	}
	metrics.SignalRelayed(cmd.Kind.String())
}

// relaySignal forwards an offer, answer or candidate to its target only.
func (h *hub) relaySignal(c *Client, cmd *Command, kind EventKind) {
	logger := h.log.With().
		Str("client_id", c.ID).
		Str("room", cmd.Room).
		Str("target", cmd.Target).
		Str("kind", cmd.Kind.String()).
		Logger()

	if !h.registry.Contains(cmd.Room, c.ID) {
		h.dropStale(c, cmd)
		return
	}
	if cmd.Target == c.ID {
		logger.Debug().Msg("signal addressed to sender dropped")
		return
	}
	if !h.registry.Contains(cmd.Room, cmd.Target) {
		logger.Debug().Msg("signal target not in room, dropped")
		metrics.StaleCommand(cmd.Kind.String())
		return
	}
	target, ok := h.clients[cmd.Target]
	if !ok {
		logger.Debug().Msg("signal target disconnected, dropped")
		return
	}

	h.send(target, &Event{
		Kind:   kind,
		Room:   cmd.Room,
		User:   cmd.Target,
		Sender: c.ID,
		Signal: cmd.Signal,
	})
	metrics.SignalRelayed(cmd.Kind.String())
	logger.Debug().Msg("signal relayed")
}
