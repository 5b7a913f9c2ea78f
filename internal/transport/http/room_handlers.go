package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/borrelio/internal/core"
	"github.com/vovakirdan/borrelio/internal/proto"
)

// RoomHandlers exposes live room state read from the hub.
type RoomHandlers struct {
	hub core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
	Capacity     int    `json:"capacity"`
}

// RoomDetailResponse is one room with its presence snapshot.
type RoomDetailResponse struct {
	ID    string      `json:"id"`
	Users proto.Users `json:"users"`
}

// ListRooms handles listing live rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.hub.Rooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "rooms unavailable"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, RoomResponse{
			ID:           room.ID,
			Participants: room.Participants,
			Capacity:     room.Capacity,
		})
	}

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// GetRoom returns the presence snapshot of one live room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	roomID := c.Param("id")

	snap, ok, err := h.hub.Snapshot(c.Request.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to read room")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "rooms unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	c.JSON(http.StatusOK, RoomDetailResponse{ID: roomID, Users: usersFromSnapshot(snap)})
}
