package api

import (
	"net/http"
)

// AgentsHandler lists agents with stored readings.
type AgentsHandler struct {
	deps Dependencies
}

// NewAgentsHandler creates a new agents handler.
func NewAgentsHandler(deps Dependencies) *AgentsHandler {
	return &AgentsHandler{deps: deps}
}

// HandleAgents handles GET /signals/agents requests.
func (h *AgentsHandler) HandleAgents(w http.ResponseWriter, r *http.Request) {
	const op = "api.agents"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	agents, err := h.deps.Agents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_failure", Wrap(op, err))
		return
	}
	if agents == nil {
		agents = []string{}
	}
	writeJSON(w, http.StatusOK, agents)
}
