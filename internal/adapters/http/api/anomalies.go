package api

import (
	"net/http"

	"github.com/tabrizchi/sib/internal/domain/model"
)

// AnomaliesHandler answers recent-anomaly queries.
type AnomaliesHandler struct {
	deps   Dependencies
	limits Limits
}

// NewAnomaliesHandler creates a new anomalies handler.
func NewAnomaliesHandler(deps Dependencies, limits Limits) *AnomaliesHandler {
	return &AnomaliesHandler{deps: deps, limits: limits}
}

// HandleAnomalies handles GET /signals/anomalies?agent=&minutes= requests.
// Records come back newest-first.
func (h *AnomaliesHandler) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	const op = "api.anomalies"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	window, err := parseWindow(r, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	agent := r.URL.Query().Get("agent")

	anomalies, err := h.deps.RecentAnomalies(r.Context(), agent, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_failure", Wrap(op, err))
		return
	}
	if anomalies == nil {
		anomalies = []model.AnomalyRecord{}
	}
	writeJSON(w, http.StatusOK, anomalies)
}
