package api

import (
	"net/http"
	"strings"

	service "github.com/tabrizchi/sib/internal/app"
	"github.com/tabrizchi/sib/internal/domain/model"
)

// CoherenceHandler answers per-agent coherence and all-agent summary queries.
type CoherenceHandler struct {
	deps   Dependencies
	limits Limits
}

// NewCoherenceHandler creates a new coherence handler.
func NewCoherenceHandler(deps Dependencies, limits Limits) *CoherenceHandler {
	return &CoherenceHandler{deps: deps, limits: limits}
}

// HandleCoherence handles GET /signals/coherence/{agent}?minutes= requests.
func (h *CoherenceHandler) HandleCoherence(w http.ResponseWriter, r *http.Request) {
	const op = "api.coherence"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	agent := strings.TrimPrefix(r.URL.Path, "/signals/coherence/")
	if agent == "" || strings.Contains(agent, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	window, err := parseWindow(r, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	snap, err := h.deps.Coherence(r.Context(), agent, window)
	if err != nil {
		if service.IsNoData(err) {
			writeError(w, http.StatusNotFound, "no_data", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "storage_failure", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleSummary handles GET /signals/summary?minutes= requests. Agents with
// no in-window readings are excluded from the overview.
func (h *CoherenceHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	window, err := parseWindow(r, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	snaps, err := h.deps.CoherenceSummary(r.Context(), window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_failure", Wrap(op, err))
		return
	}
	if snaps == nil {
		snaps = []model.CoherenceSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}
