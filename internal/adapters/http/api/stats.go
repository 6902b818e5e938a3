package api

import (
	"net/http"

	service "github.com/tabrizchi/sib/internal/app"
)

// StatsProvider exposes the engine's operational snapshot.
type StatsProvider interface {
	GetStats() service.Stats
}

// StatsHandler serves store and baseline-configuration counters.
type StatsHandler struct {
	stats StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}
