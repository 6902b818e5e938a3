package api

import (
	"net/http"
	"strings"

	service "github.com/tabrizchi/sib/internal/app"
)

// DriftHandler answers current-drift and drift-trend queries.
type DriftHandler struct {
	deps   Dependencies
	limits Limits
}

// NewDriftHandler creates a new drift handler.
func NewDriftHandler(deps Dependencies, limits Limits) *DriftHandler {
	return &DriftHandler{deps: deps, limits: limits}
}

// HandleDrift handles GET /signals/drift/{agent} and
// GET /signals/drift/{agent}/trend?minutes= requests.
func (h *DriftHandler) HandleDrift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/signals/drift/")
	agent, wantTrend := strings.CutSuffix(path, "/trend")
	if agent == "" || strings.Contains(agent, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if wantTrend {
		h.handleTrend(w, r, agent)
		return
	}
	h.handleNow(w, r, agent)
}

func (h *DriftHandler) handleNow(w http.ResponseWriter, r *http.Request, agent string) {
	const op = "api.drift_now"
	eval, err := h.deps.DriftNow(r.Context(), agent)
	if err != nil {
		if service.IsNoBaseline(err) {
			writeError(w, http.StatusNotFound, "no_baseline", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "storage_failure", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (h *DriftHandler) handleTrend(w http.ResponseWriter, r *http.Request, agent string) {
	const op = "api.drift_trend"
	window, err := parseWindow(r, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	summary, err := h.deps.DriftTrend(r.Context(), agent, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_failure", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
