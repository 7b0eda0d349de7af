package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 3 * time.Second

type healthResponse struct {
	Status             string `json:"status"`
	DatabaseConnection string `json:"database_connection"`
}

// HealthCheck handles GET /health. Any database problem answers 500 with a
// "degraded" status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if !h.db.Connected() {
		h.sendJSON(w, http.StatusInternalServerError, healthResponse{
			Status:             "degraded",
			DatabaseConnection: "not established",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("Health check ping failed", err)
		h.sendJSON(w, http.StatusInternalServerError, healthResponse{
			Status:             "degraded",
			DatabaseConnection: "unhealthy: " + err.Error(),
		})
		return
	}

	h.sendJSON(w, http.StatusOK, healthResponse{
		Status:             "ok",
		DatabaseConnection: "healthy",
	})
}
