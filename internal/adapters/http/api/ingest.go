package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/tabrizchi/sib/internal/app"
	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/types"
)

// ingestRequest mirrors the wire schema for POST /signals/ingest.
type ingestRequest struct {
	Agent     string             `json:"agent"`
	State     string             `json:"state"`
	Strength  *float64           `json:"strength"`
	Timestamp string             `json:"timestamp"`
	Context   map[string]float64 `json:"context,omitempty"`
}

func (q ingestRequest) validate() error {
	switch {
	case strings.TrimSpace(q.Agent) == "":
		return errors.New("missing agent")
	case !types.AgentState(q.State).Valid():
		return errors.New("unknown state")
	case q.Strength == nil:
		return errors.New("missing strength")
	case *q.Strength < 0 || *q.Strength > 1:
		return errors.New("strength must be within [0,1]")
	case strings.TrimSpace(q.Timestamp) == "":
		return errors.New("missing timestamp")
	}
	if _, err := time.Parse(time.RFC3339, q.Timestamp); err != nil {
		return errors.New("invalid timestamp; must be RFC3339")
	}
	return nil
}

// toReading converts a validated request into the domain record.
func (q ingestRequest) toReading() model.SignalReading {
	ts, _ := time.Parse(time.RFC3339, q.Timestamp)
	return model.SignalReading{
		Agent:     q.Agent,
		State:     types.AgentState(q.State),
		Strength:  *q.Strength,
		Timestamp: ts,
		Context:   q.Context,
	}
}

// ingestResponse returns the stored reading together with the evaluation
// triggered by it, when a baseline existed.
type ingestResponse struct {
	Reading    model.SignalReading    `json:"reading"`
	Evaluation *model.DriftEvaluation `json:"evaluation,omitempty"`
}

// IngestHandler handles signal ingestion requests.
type IngestHandler struct {
	deps Dependencies
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(deps Dependencies) *IngestHandler {
	return &IngestHandler{deps: deps}
}

// HandleIngest handles POST /signals/ingest requests.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	stored, eval, err := h.deps.Ingest(r.Context(), req.toReading())
	if err != nil {
		if service.IsInvalidReading(err) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "storage_failure", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{Reading: stored, Evaluation: eval})
}
