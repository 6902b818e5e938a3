// Package drift classifies signal readings against a rolling baseline.
package drift

import (
	"math"
	"time"

	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/types"
)

// Default classification thresholds, overridable via options.
const (
	defaultWarnPercent     = 15.0
	defaultCriticalPercent = 20.0

	// zeroBaselineVariance stands in for "100%+" when the baseline is exactly
	// zero and the current value is not: the ratio is undefined but the
	// divergence must still classify as red.
	zeroBaselineVariance = 100.0
)

// Classifier maps a baseline/current pair to a DriftEvaluation. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	warnPercent     float64
	criticalPercent float64
}

// NewClassifier builds a Classifier with the default 15/20 thresholds,
// adjusted by the supplied options.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		warnPercent:     defaultWarnPercent,
		criticalPercent: defaultCriticalPercent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Variance returns the relative deviation of current from baseline as a
// percentage. A zero baseline yields 0 when current is also zero, otherwise
// the zero-baseline stand-in value.
func Variance(baseline, current float64) float64 {
	if baseline == 0 {
		if current == 0 {
			return 0
		}
		return zeroBaselineVariance
	}
	return math.Abs(current-baseline) / baseline * 100
}

// Severity maps a variance percentage onto the green/yellow/red ladder.
// Bounds are inclusive below, exclusive above: exactly warnPercent is
// yellow, exactly criticalPercent is red.
func (c *Classifier) Severity(variancePercent float64) types.Severity {
	switch {
	case variancePercent >= c.criticalPercent:
		return types.SeverityRed
	case variancePercent >= c.warnPercent:
		return types.SeverityYellow
	default:
		return types.SeverityGreen
	}
}

// Evaluate classifies current against baseline for agent at the given time.
func (c *Classifier) Evaluate(agent string, baseline, current float64, at time.Time) model.DriftEvaluation {
	variance := Variance(baseline, current)
	severity := c.Severity(variance)
	return model.DriftEvaluation{
		Agent:           agent,
		Timestamp:       at,
		BaselineValue:   baseline,
		CurrentValue:    current,
		VariancePercent: variance,
		IsAnomaly:       severity.Anomalous(),
		Severity:        severity,
	}
}

// Baseline returns the arithmetic mean strength over readings and the sample
// count. ok is false when fewer than minSamples readings are supplied; ties
// at exactly minSamples are valid.
func Baseline(readings []model.SignalReading, minSamples int) (value float64, samples int, ok bool) {
	if len(readings) < minSamples {
		return 0, len(readings), false
	}
	var sum float64
	for _, r := range readings {
		sum += r.Strength
	}
	return sum / float64(len(readings)), len(readings), true
}
