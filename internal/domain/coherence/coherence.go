// Package coherence derives a bounded per-agent score from signal strength
// and the drift trend assessment.
package coherence

import (
	"time"

	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/types"
)

// Default status tier boundaries (percent of average variance). This ladder
// is independent of the green/yellow/red severity ladder and configured
// separately.
const (
	defaultCautionPercent  = 10.0
	defaultWarningPercent  = 15.0
	defaultCriticalPercent = 20.0
)

// Trend adjustments applied to the mean signal strength.
const (
	stableAdjustment     = 1.00
	recoveringAdjustment = 0.95
	degradingAdjustment  = 0.85
)

// Scorer computes coherence snapshots. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	cautionPercent  float64
	warningPercent  float64
	criticalPercent float64
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithStatusTiers sets the drift status boundaries. Each boundary is an
// inclusive lower bound on average variance percent.
func WithStatusTiers(caution, warning, critical float64) Option {
	return func(s *Scorer) {
		if caution > 0 && warning > caution && critical > warning {
			s.cautionPercent = caution
			s.warningPercent = warning
			s.criticalPercent = critical
		}
	}
}

// NewScorer builds a Scorer with the default 10/15/20 tiers, adjusted by the
// supplied options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		cautionPercent:  defaultCautionPercent,
		warningPercent:  defaultWarningPercent,
		criticalPercent: defaultCriticalPercent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status maps an average variance percentage onto the four-tier drift
// status ladder. Bounds are inclusive below, exclusive above.
func (s *Scorer) Status(avgVariancePercent float64) types.DriftStatus {
	switch {
	case avgVariancePercent >= s.criticalPercent:
		return types.StatusCritical
	case avgVariancePercent >= s.warningPercent:
		return types.StatusWarning
	case avgVariancePercent >= s.cautionPercent:
		return types.StatusCaution
	default:
		return types.StatusStable
	}
}

// adjustment returns the multiplier applied for the given trend.
func adjustment(t types.Trend) float64 {
	switch t {
	case types.TrendDegrading:
		return degradingAdjustment
	case types.TrendRecovering:
		return recoveringAdjustment
	default:
		return stableAdjustment
	}
}

// Score combines the mean strength of the in-window readings with the trend
// summary. ok is false when no readings exist in the window; callers surface
// that as a no-data outcome rather than a zeroed snapshot.
func (s *Scorer) Score(agent string, readings []model.SignalReading, summary model.TrendSummary, at time.Time) (model.CoherenceSnapshot, bool) {
	if len(readings) == 0 {
		return model.CoherenceSnapshot{}, false
	}

	var sum float64
	for _, r := range readings {
		sum += r.Strength
	}
	avg := sum / float64(len(readings))

	score := avg * adjustment(summary.Trend)
	score = clamp(score, 0, 1)

	return model.CoherenceSnapshot{
		Agent:             agent,
		Timestamp:         at,
		CoherenceScore:    score,
		DriftStatus:       s.Status(summary.AvgVariance),
		SignalCount:       len(readings),
		AvgSignalStrength: avg,
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
