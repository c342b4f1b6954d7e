package handler

import (
	"net/http"

	"github.com/thakuramit5464/Personal-Dashboard/internal/config"
)

// Version is the service version reported by the status endpoint.
const Version = "0.1.0"

// statusHandler reports the service identity and which optional
// integrations are configured.
func statusHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":     "personal-dashboard",
			"version":     Version,
			"status":      "operational",
			"environment": cfg.Environment,
			"features": map[string]bool{
				"image_uploads":   cfg.ImageHost.Configured(),
				"shared_realtime": cfg.RedisURL != "",
			},
		})
	}
}
