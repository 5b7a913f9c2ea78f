package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/borrelio/internal/config"
	"github.com/vovakirdan/borrelio/internal/proto"
)

// ConfigResponse tells clients how to set up peers and audio falloff.
type ConfigResponse struct {
	Protocol    int                 `json:"protocol"`
	ICEServers  []string            `json:"iceServers"`
	MaxRoomSize int                 `json:"maxRoomSize"`
	Proximity   proto.ProximityData `json:"proximity"`
}

// ConfigHandlers serves client-facing session parameters.
type ConfigHandlers struct {
	params proto.WelcomeData
}

// NewConfigHandlers snapshots cfg; later changes are not observed.
func NewConfigHandlers(cfg *config.Config) *ConfigHandlers {
	return &ConfigHandlers{params: sessionParams(cfg)}
}

// GetConfig handles GET /api/config.
func (h *ConfigHandlers) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		Protocol:    h.params.Protocol,
		ICEServers:  h.params.ICEServers,
		MaxRoomSize: h.params.MaxRoomSize,
		Proximity:   h.params.Proximity,
	})
}

// sessionParams is the welcome payload without a user id.
func sessionParams(cfg *config.Config) proto.WelcomeData {
	servers := append([]string(nil), cfg.STUNServers...)
	if servers == nil {
		servers = []string{}
	}
	return proto.WelcomeData{
		Protocol:    proto.ProtocolVersion,
		ICEServers:  servers,
		MaxRoomSize: cfg.MaxRoomSize,
		Proximity: proto.ProximityData{
			Near: cfg.Proximity.Near,
			Far:  cfg.Proximity.Far,
		},
	}
}
