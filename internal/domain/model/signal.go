// Package model contains domain records passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/tabrizchi/sib/internal/domain/types"
)

// Agent identifier length bounds.
const (
	minAgentLen = 1
	maxAgentLen = 100
)

// SignalReading is one ingested measurement for an agent.
type SignalReading struct {
	ID         string             `json:"id"`
	Agent      string             `json:"agent"`
	State      types.AgentState   `json:"state"`
	Strength   float64            `json:"strength"`
	Timestamp  time.Time          `json:"timestamp"`
	Context    map[string]float64 `json:"context,omitempty"`
	ReceivedAt time.Time          `json:"received_at"`

	// Evaluation captured when the reading was ingested. Evaluated is false
	// for readings stored before a baseline existed for the agent.
	Evaluated       bool           `json:"evaluated"`
	VariancePercent float64        `json:"variance_percent"`
	Severity        types.Severity `json:"severity,omitempty"`
}

// Validate checks the invariants a reading must satisfy before it may be
// stored. Readings that fail validation never reach the engine or the store.
func (r SignalReading) Validate() error {
	if len(r.Agent) < minAgentLen || len(r.Agent) > maxAgentLen {
		return fmt.Errorf("agent must be %d-%d characters: %q", minAgentLen, maxAgentLen, r.Agent)
	}
	if !r.State.Valid() {
		return fmt.Errorf("unknown state %q", r.State)
	}
	if r.Strength < 0 || r.Strength > 1 {
		return fmt.Errorf("strength %v outside [0,1]", r.Strength)
	}
	if r.Timestamp.IsZero() {
		return errors.New("missing timestamp")
	}
	return nil
}

// AnomalyRecord is appended to the store when a reading classifies as
// yellow or red. Records are immutable once created.
type AnomalyRecord struct {
	ID              string         `json:"id"`
	Agent           string         `json:"agent"`
	ReadingID       string         `json:"reading_id"`
	VariancePercent float64        `json:"variance_percent"`
	Severity        types.Severity `json:"severity"`
	BaselineValue   float64        `json:"baseline_value"`
	DetectedAt      time.Time      `json:"detected_at"`
}

// DriftEvaluation is the result of classifying a single reading against the
// agent's baseline. Computed per request, owned by the caller.
type DriftEvaluation struct {
	Agent           string         `json:"agent"`
	Timestamp       time.Time      `json:"timestamp"`
	BaselineValue   float64        `json:"baseline_value"`
	CurrentValue    float64        `json:"current_value"`
	VariancePercent float64        `json:"variance_percent"`
	IsAnomaly       bool           `json:"is_anomaly"`
	Severity        types.Severity `json:"severity"`
}

// TrendSummary characterizes variance over a time window.
type TrendSummary struct {
	Agent        string      `json:"agent"`
	AvgVariance  float64     `json:"avg_variance"`
	MaxVariance  float64     `json:"max_variance"`
	AnomalyCount int         `json:"anomaly_count"`
	Trend        types.Trend `json:"trend"`
}

// CoherenceSnapshot combines mean signal strength with the trend assessment
// into a single bounded score for one agent and one window.
type CoherenceSnapshot struct {
	Agent             string            `json:"agent"`
	Timestamp         time.Time         `json:"timestamp"`
	CoherenceScore    float64           `json:"coherence_score"`
	DriftStatus       types.DriftStatus `json:"drift_status"`
	SignalCount       int               `json:"signal_count"`
	AvgSignalStrength float64           `json:"avg_signal_strength"`
}
