// Package service provides the drift detection and coherence scoring engine
// that implements the dependencies required by the HTTP API and the stream
// ingest workers.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tabrizchi/sib/internal/adapters/repository"
	"github.com/tabrizchi/sib/internal/domain/coherence"
	"github.com/tabrizchi/sib/internal/domain/drift"
	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/trend"
	"github.com/tabrizchi/sib/pkg/logger"
	"github.com/tabrizchi/sib/pkg/metrics"
)

// Default baseline parameters, overridable via options.
const (
	defaultBaselineWindow = 10 * time.Minute
	defaultMinSamples     = 5
)

// Clock supplies the engine's notion of now. Injectable so tests construct
// window boundaries deterministically.
type Clock func() time.Time

// Engine evaluates incoming readings against each agent's rolling baseline
// and answers trend/coherence queries from stored history. It keeps no
// mutable state between calls other than the append-only store; per-agent
// mutexes only serialize ingestion for the same agent.
type Engine struct {
	store      repository.Store
	classifier *drift.Classifier
	analyzer   *trend.Analyzer
	scorer     *coherence.Scorer

	baselineWindow time.Duration
	minSamples     int

	clock Clock
	log   logger.Logger

	agentLocks sync.Map // agent -> *sync.Mutex
}

// New constructs an Engine on top of the given store.
func New(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		classifier:     drift.NewClassifier(),
		analyzer:       trend.NewAnalyzer(),
		scorer:         coherence.NewScorer(),
		baselineWindow: defaultBaselineWindow,
		minSamples:     defaultMinSamples,
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("engine")
	}
	return e
}

// lockAgent serializes ingestion per agent. Queries never take this lock;
// the store guarantees atomic visibility of each reading+anomaly pair.
func (e *Engine) lockAgent(agent string) *sync.Mutex {
	mu, _ := e.agentLocks.LoadOrStore(agent, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Ingest validates and stores a reading, classifying it against the agent's
// current baseline. When the classification crosses a threshold, the anomaly
// record is appended atomically with the reading: both persist or neither
// does. The returned evaluation is nil when no baseline existed yet.
func (e *Engine) Ingest(ctx context.Context, r model.SignalReading) (model.SignalReading, *model.DriftEvaluation, error) {
	start := time.Now()
	if err := r.Validate(); err != nil {
		metrics.RecordIngestRejection(metrics.RejectValidation)
		return model.SignalReading{}, nil, fmt.Errorf("%w: %w", ErrInvalidReading, err)
	}

	mu := e.lockAgent(r.Agent)
	mu.Lock()
	defer mu.Unlock()

	now := e.clock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.ReceivedAt = now

	// Baseline over readings already stored, excluding the incoming one.
	readStart := time.Now()
	prior, err := e.store.ReadingsBetween(ctx, r.Agent, now.Add(-e.baselineWindow), now, 0)
	metrics.RecordStoreOperation("read_window", float64(time.Since(readStart).Microseconds())/1000)
	if err != nil {
		metrics.RecordIngestRejection(metrics.RejectStorage)
		return model.SignalReading{}, nil, fmt.Errorf("read baseline window: %w", err)
	}

	var (
		eval    *model.DriftEvaluation
		anomaly *model.AnomalyRecord
	)
	if baseline, _, ok := drift.Baseline(prior, e.minSamples); ok {
		ev := e.classifier.Evaluate(r.Agent, baseline, r.Strength, now)
		eval = &ev
		r.Evaluated = true
		r.VariancePercent = ev.VariancePercent
		r.Severity = ev.Severity
		if ev.IsAnomaly {
			anomaly = &model.AnomalyRecord{
				ID:              uuid.NewString(),
				Agent:           r.Agent,
				ReadingID:       r.ID,
				VariancePercent: ev.VariancePercent,
				Severity:        ev.Severity,
				BaselineValue:   baseline,
				DetectedAt:      now,
			}
		}
	}

	appendStart := time.Now()
	err = e.store.AppendReading(ctx, r, anomaly)
	metrics.RecordStoreOperation("append", float64(time.Since(appendStart).Microseconds())/1000)
	if err != nil {
		metrics.RecordIngestRejection(metrics.RejectStorage)
		return model.SignalReading{}, nil, fmt.Errorf("append reading: %w", err)
	}

	metrics.RecordSignalIngested()
	metrics.RecordIngestDuration(float64(time.Since(start).Microseconds()) / 1000)
	if anomaly != nil {
		metrics.RecordAnomalyDetected(string(anomaly.Severity))
		e.log.Info(ctx, "anomaly detected",
			logger.String("agent", r.Agent),
			logger.String("severity", string(anomaly.Severity)),
			logger.Float64("variance_percent", anomaly.VariancePercent),
			logger.Float64("baseline", anomaly.BaselineValue),
		)
	}
	return r, eval, nil
}

// DriftNow evaluates the agent's latest in-window reading against the
// baseline over all stored in-window readings. ErrNoBaseline when the agent
// has no recent history or fewer than the minimum samples.
func (e *Engine) DriftNow(ctx context.Context, agent string) (model.DriftEvaluation, error) {
	now := e.clock()
	readings, err := e.store.ReadingsBetween(ctx, agent, now.Add(-e.baselineWindow), now, 0)
	if err != nil {
		return model.DriftEvaluation{}, fmt.Errorf("read baseline window: %w", err)
	}
	baseline, _, ok := drift.Baseline(readings, e.minSamples)
	if !ok {
		return model.DriftEvaluation{}, fmt.Errorf("%w: agent %q has %d readings in window", ErrNoBaseline, agent, len(readings))
	}
	latest := readings[0] // newest-first
	return e.classifier.Evaluate(agent, baseline, latest.Strength, now), nil
}

// DriftTrend summarizes variance direction for the agent over the window.
// An idle agent yields zero values and a stable trend, never an error.
func (e *Engine) DriftTrend(ctx context.Context, agent string, window time.Duration) (model.TrendSummary, error) {
	now := e.clock()
	from := now.Add(-window)
	readings, err := e.store.ReadingsBetween(ctx, agent, from, now, 0)
	if err != nil {
		return model.TrendSummary{}, fmt.Errorf("read trend window: %w", err)
	}
	return e.analyzer.Summarize(agent, readings, from, now), nil
}

// Coherence combines mean signal strength with the trend assessment.
// ErrNoData when the agent has no readings in the window.
func (e *Engine) Coherence(ctx context.Context, agent string, window time.Duration) (model.CoherenceSnapshot, error) {
	now := e.clock()
	from := now.Add(-window)
	readings, err := e.store.ReadingsBetween(ctx, agent, from, now, 0)
	if err != nil {
		return model.CoherenceSnapshot{}, fmt.Errorf("read coherence window: %w", err)
	}
	summary := e.analyzer.Summarize(agent, readings, from, now)
	snap, ok := e.scorer.Score(agent, readings, summary, now)
	if !ok {
		return model.CoherenceSnapshot{}, fmt.Errorf("%w: agent %q has no readings in window", ErrNoData, agent)
	}
	return snap, nil
}

// CoherenceSummary fans out Coherence across every agent with stored
// readings. Agents without in-window data are excluded rather than failing
// the overview.
func (e *Engine) CoherenceSummary(ctx context.Context, window time.Duration) ([]model.CoherenceSnapshot, error) {
	agents, err := e.store.Agents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	out := make([]model.CoherenceSnapshot, 0, len(agents))
	for _, agent := range agents {
		snap, err := e.Coherence(ctx, agent, window)
		if err != nil {
			if IsNoData(err) {
				continue
			}
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// RecentReadings returns readings in the window, newest-first. An empty
// agent matches all agents; limit <= 0 means no cap.
func (e *Engine) RecentReadings(ctx context.Context, agent string, window time.Duration, limit int) ([]model.SignalReading, error) {
	now := e.clock()
	readings, err := e.store.ReadingsBetween(ctx, agent, now.Add(-window), now, limit)
	if err != nil {
		return nil, fmt.Errorf("read recent readings: %w", err)
	}
	return readings, nil
}

// Agents returns the identifiers of agents with at least one reading.
func (e *Engine) Agents(ctx context.Context) ([]string, error) {
	agents, err := e.store.Agents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

// RecentAnomalies returns anomaly records in the window, newest-first.
func (e *Engine) RecentAnomalies(ctx context.Context, agent string, window time.Duration) ([]model.AnomalyRecord, error) {
	now := e.clock()
	anomalies, err := e.store.AnomaliesSince(ctx, agent, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("read recent anomalies: %w", err)
	}
	return anomalies, nil
}

// Stats is the operational snapshot served by /stats: store contents plus
// the baseline configuration the engine is running with.
type Stats struct {
	AgentCount            int     `json:"agent_count"`
	ReadingCount          int     `json:"reading_count"`
	BaselineWindowMinutes float64 `json:"baseline_window_minutes"`
	MinBaselineSamples    int     `json:"min_baseline_samples"`
}

// GetStats returns the current snapshot and refreshes the corresponding
// gauges. Store errors leave the affected counters at zero rather than
// failing the snapshot.
func (e *Engine) GetStats() Stats {
	ctx := context.Background()
	stats := Stats{
		BaselineWindowMinutes: e.baselineWindow.Minutes(),
		MinBaselineSamples:    e.minSamples,
	}
	if agents, err := e.store.Agents(ctx); err == nil {
		stats.AgentCount = len(agents)
		metrics.UpdateAgentsTracked(len(agents))
	}
	if n, err := e.store.CountReadings(ctx); err == nil {
		stats.ReadingCount = n
		metrics.UpdateReadingsStored(n)
	}
	return stats
}
