package core

import "github.com/vovakirdan/borrelio/internal/metrics"

func (h *hub) handleJoin(c *Client, cmd *Command) {
	role, err := h.registry.Join(cmd.Room, c.ID)
	if err != nil {
		h.send(c, &Event{Kind: EventError, Room: cmd.Room, Error: coreError(ErrCodeAlreadyJoined, "already joined room")})
		return
	}
	metrics.Join(role.String())

	logger := h.log.With().Str("client_id", c.ID).Str("room", cmd.Room).Logger()
	switch role {
	case RoleRejected:
		logger.Info().Msg("room full, join rejected")
		h.send(c, &Event{Kind: EventRoomFull, Room: cmd.Room})
		return
	case RoleCreator:
		logger.Info().Msg("room created")
		h.send(c, &Event{Kind: EventRoomCreated, Room: cmd.Room})
	default:
		logger.Info().Msg("room joined")
		h.send(c, &Event{Kind: EventRoomJoined, Room: cmd.Room})
	}

	c.Rooms[cmd.Room] = struct{}{}
	h.refreshGauges()
	h.broadcastPresence(cmd.Room, c)
}

// leave removes c from roomID. Leaving a room the client is not in is a no-op.
// notify controls whether c itself receives the resulting snapshot.
func (h *hub) leave(c *Client, roomID string, notify bool) {
	delete(c.Rooms, roomID)
	removed, destroyed := h.registry.Leave(roomID, c.ID)
	if !removed {
		h.log.Debug().Str("client_id", c.ID).Str("room", roomID).Msg("leave for absent participant ignored")
		return
	}

	h.log.Info().Str("client_id", c.ID).Str("room", roomID).Bool("room_destroyed", destroyed).Msg("left room")
	h.refreshGauges()

	var origin *Client
	if notify {
		origin = c
	}
	h.broadcastPresence(roomID, origin)
}

func (h *hub) handleUpdateLocation(c *Client, cmd *Command) {
	if !h.registry.UpdateLocation(cmd.Room, c.ID, cmd.Location) {
		h.dropStale(c, cmd)
		return
	}
	h.broadcastPresence(cmd.Room, c)
}

func (h *hub) handleUpdateName(c *Client, cmd *Command) {
	if !h.registry.UpdateName(cmd.Room, c.ID, cmd.Name) {
		h.dropStale(c, cmd)
		return
	}
	h.broadcastPresence(cmd.Room, c)
}

// broadcastPresence sends the full snapshot of roomID to every member and to
// origin, which may already have left.
func (h *hub) broadcastPresence(roomID string, origin *Client) {
	ev := &Event{Kind: EventPresence, Room: roomID, Snapshot: h.registry.Snapshot(roomID)}

	originSent := false
	for _, id := range h.registry.Members(roomID) {
		c, ok := h.clients[id]
		if !ok {
			continue
		}
		if c == origin {
			originSent = true
		}
		h.send(c, ev)
	}
	if origin != nil && !originSent {
		h.send(origin, ev)
	}
}

func (h *hub) dropStale(c *Client, cmd *Command) {
	metrics.StaleCommand(cmd.Kind.String())
	h.log.Debug().
		Str("client_id", c.ID).
		Str("room", cmd.Room).
		Str("kind", cmd.Kind.String()).
		Msg("stale command dropped")
}
