package handlers

import (
	"context"
	"net/http"
	"time"

	"nfl-pickem/logging"
)

// HealthHandler reports whether the datastore is reachable
type HealthHandler struct {
	ping    func(ctx context.Context) error
	storage string
	started time.Time
	logger  *logging.Logger
}

// NewHealthHandler creates a health handler; ping may be nil for the in-memory store
func NewHealthHandler(storage string, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{
		ping:    ping,
		storage: storage,
		started: time.Now(),
		logger:  logging.WithPrefix("Health"),
	}
}

// HealthResponse is the body of /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Uptime  string `json:"uptime"`
}

// Check handles GET /healthz
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Storage: h.storage,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	}
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.logger.Warnf("Datastore ping failed: %v", err)
			resp.Status = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
