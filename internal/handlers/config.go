package handlers

import (
	"net/http"

	"github.com/jamshare/backend/internal/config"
	"github.com/jamshare/backend/internal/models"
)

// ConfigHandler exposes the public client configuration.
type ConfigHandler struct {
	cfg *config.Config
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// PublicConfig advertises the intervals clients should run their heartbeat
// and poll loops at, so server-side timeout tuning doesn't require a client
// redeploy.
func (h *ConfigHandler) PublicConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.PublicConfigResponse{
		HeartbeatIntervalMs: h.cfg.HeartbeatInterval.Milliseconds(),
		PollIntervalMs:      h.cfg.PollInterval.Milliseconds(),
		PresenceTimeoutMs:   h.cfg.PresenceTimeout.Milliseconds(),
	})
}
