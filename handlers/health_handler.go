package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger - *sql.DB удовлетворяет этому интерфейсу.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		slog.WarnContext(r.Context(), "health check: database ping failed", "error", err)
		respond(w, r, http.StatusServiceUnavailable, jsonResponse{"status": "unavailable", "database": "down"})
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"status": "ok", "database": "up"})
}
