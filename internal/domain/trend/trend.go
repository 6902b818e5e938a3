// Package trend summarizes drift variance direction over a time window.
package trend

import (
	"time"

	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/types"
)

// defaultMargin is the relative margin separating degrading/recovering from
// stable: the later half must differ from the earlier half by more than 10%
// of the earlier half's mean variance.
const defaultMargin = 0.10

// Analyzer computes trend summaries from evaluated readings. It holds no
// mutable state and is safe for concurrent use.
type Analyzer struct {
	margin float64
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithMargin sets the relative degradation/recovery margin (e.g. 0.10).
func WithMargin(margin float64) Option {
	return func(a *Analyzer) {
		if margin > 0 {
			a.margin = margin
		}
	}
}

// NewAnalyzer builds an Analyzer with the default margin, adjusted by the
// supplied options.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{margin: defaultMargin}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summarize characterizes the variance of agent's evaluated readings over
// [from, to]. Readings stored before a baseline existed carry no evaluation
// and are skipped. An empty window yields zero values and a stable trend;
// an idle agent is not anomalous.
func (a *Analyzer) Summarize(agent string, readings []model.SignalReading, from, to time.Time) model.TrendSummary {
	summary := model.TrendSummary{Agent: agent, Trend: types.TrendStable}

	var (
		sum, maxV            float64
		count                int
		earlierSum, laterSum float64
		earlierN, laterN     int
	)
	mid := from.Add(to.Sub(from) / 2)

	for _, r := range readings {
		if !r.Evaluated {
			continue
		}
		count++
		sum += r.VariancePercent
		if r.VariancePercent > maxV {
			maxV = r.VariancePercent
		}
		if r.Severity.Anomalous() {
			summary.AnomalyCount++
		}
		if r.Timestamp.Before(mid) {
			earlierSum += r.VariancePercent
			earlierN++
		} else {
			laterSum += r.VariancePercent
			laterN++
		}
	}

	if count == 0 {
		return summary
	}

	summary.AvgVariance = sum / float64(count)
	summary.MaxVariance = maxV
	summary.Trend = a.classify(earlierSum, earlierN, laterSum, laterN, count)
	return summary
}

// classify splits the window in half by time and compares mean variance of
// the two halves. With fewer than two samples, or a half with no samples,
// there is nothing to compare and the trend is stable.
func (a *Analyzer) classify(earlierSum float64, earlierN int, laterSum float64, laterN, total int) types.Trend {
	if total < 2 || earlierN == 0 || laterN == 0 {
		return types.TrendStable
	}
	earlier := earlierSum / float64(earlierN)
	later := laterSum / float64(laterN)
	switch {
	case later > earlier*(1+a.margin):
		return types.TrendDegrading
	case later < earlier*(1-a.margin):
		return types.TrendRecovering
	default:
		return types.TrendStable
	}
}
