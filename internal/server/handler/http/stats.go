package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/unidocs/internal/models"
	"github.com/atinyakov/unidocs/internal/server/response"
)

// StatsService returns platform-wide counts.
type StatsService interface {
	Get(ctx context.Context) (*models.Stats, error)
}

// StatsHandler handles GET /api/stats.
type StatsHandler struct {
	StatsService StatsService
}

// Stats writes the aggregate counts.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	v, err := h.StatsService.Get(r.Context())
	writeResult(w, v, err)
}

// Health answers {"status":"ok"}.
func Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
