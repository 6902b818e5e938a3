// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/tabrizchi/sib/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the engine implementation.
type Dependencies interface {
	Ingest(ctx context.Context, r model.SignalReading) (model.SignalReading, *model.DriftEvaluation, error)
	RecentReadings(ctx context.Context, agent string, window time.Duration, limit int) ([]model.SignalReading, error)
	Agents(ctx context.Context) ([]string, error)
	DriftNow(ctx context.Context, agent string) (model.DriftEvaluation, error)
	DriftTrend(ctx context.Context, agent string, window time.Duration) (model.TrendSummary, error)
	Coherence(ctx context.Context, agent string, window time.Duration) (model.CoherenceSnapshot, error)
	CoherenceSummary(ctx context.Context, window time.Duration) ([]model.CoherenceSnapshot, error)
	RecentAnomalies(ctx context.Context, agent string, window time.Duration) ([]model.AnomalyRecord, error)
}

// Limits bounds the window/limit query parameters; values come from config,
// not literals in the handlers.
type Limits struct {
	DefaultWindow time.Duration
	MaxWindow     time.Duration
	DefaultLimit  int
	MaxLimit      int
}

// Server wires HTTP routes for the business API.
type Server struct {
	ingestHandler    *IngestHandler
	readingsHandler  *ReadingsHandler
	agentsHandler    *AgentsHandler
	driftHandler     *DriftHandler
	coherenceHandler *CoherenceHandler
	anomaliesHandler *AnomaliesHandler
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, limits Limits) *Server {
	return &Server{
		ingestHandler:    NewIngestHandler(deps),
		readingsHandler:  NewReadingsHandler(deps, limits),
		agentsHandler:    NewAgentsHandler(deps),
		driftHandler:     NewDriftHandler(deps, limits),
		coherenceHandler: NewCoherenceHandler(deps, limits),
		anomaliesHandler: NewAnomaliesHandler(deps, limits),
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/signals/ingest", MetricsMiddleware(s.ingestHandler.HandleIngest, "ingest"))
	mux.HandleFunc("/signals/recent", MetricsMiddleware(s.readingsHandler.HandleRecent, "recent"))
	mux.HandleFunc("/signals/agents", MetricsMiddleware(s.agentsHandler.HandleAgents, "agents"))
	mux.HandleFunc("/signals/drift/", MetricsMiddleware(s.driftHandler.HandleDrift, "drift"))
	mux.HandleFunc("/signals/coherence/", MetricsMiddleware(s.coherenceHandler.HandleCoherence, "coherence"))
	mux.HandleFunc("/signals/summary", MetricsMiddleware(s.coherenceHandler.HandleSummary, "summary"))
	mux.HandleFunc("/signals/anomalies", MetricsMiddleware(s.anomaliesHandler.HandleAnomalies, "anomalies"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseWindow reads the `minutes` query parameter, applying the configured
// default and bounds.
func parseWindow(r *http.Request, limits Limits) (time.Duration, error) {
	raw := r.URL.Query().Get("minutes")
	if raw == "" {
		return limits.DefaultWindow, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return 0, WrapKind("api.parse_window", ErrBadRequest, err)
	}
	// Bounds-check before converting: the multiplication overflows for
	// large minute counts and would wrap past the max-window comparison.
	if minutes < 1 || minutes > int(limits.MaxWindow/time.Minute) {
		return 0, NewKind("api.parse_window", ErrWindowOutOfRange)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// parseLimit reads the `limit` query parameter, applying the configured
// default and bounds.
func parseLimit(r *http.Request, limits Limits) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return limits.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, WrapKind("api.parse_limit", ErrBadRequest, err)
	}
	if limit < 1 || limit > limits.MaxLimit {
		return 0, NewKind("api.parse_limit", ErrLimitOutOfRange)
	}
	return limit, nil
}
