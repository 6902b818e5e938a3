package api

import (
	"net/http"

	"github.com/tabrizchi/sib/internal/domain/model"
)

// ReadingsHandler handles recent-readings queries.
type ReadingsHandler struct {
	deps   Dependencies
	limits Limits
}

// NewReadingsHandler creates a new readings handler.
func NewReadingsHandler(deps Dependencies, limits Limits) *ReadingsHandler {
	return &ReadingsHandler{deps: deps, limits: limits}
}

// HandleRecent handles GET /signals/recent?agent=&minutes=&limit= requests.
// Readings come back newest-first.
func (h *ReadingsHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.recent"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	window, err := parseWindow(r, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	limit, err := parseLimit(r, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	agent := r.URL.Query().Get("agent")

	readings, err := h.deps.RecentReadings(r.Context(), agent, window, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_failure", Wrap(op, err))
		return
	}
	if readings == nil {
		readings = []model.SignalReading{}
	}
	writeJSON(w, http.StatusOK, readings)
}
