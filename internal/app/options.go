package service

import (
	"time"

	"github.com/tabrizchi/sib/internal/domain/coherence"
	"github.com/tabrizchi/sib/internal/domain/drift"
	"github.com/tabrizchi/sib/internal/domain/trend"
	"github.com/tabrizchi/sib/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBaselineWindow sets the rolling baseline window length.
func WithBaselineWindow(window time.Duration) Option {
	return func(e *Engine) {
		if window >= time.Minute {
			e.baselineWindow = window
		}
	}
}

// WithMinSamples sets the minimum number of in-window readings required for
// a valid baseline.
func WithMinSamples(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minSamples = n
		}
	}
}

// WithClassifier replaces the drift classifier.
func WithClassifier(c *drift.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithTrendAnalyzer replaces the trend analyzer.
func WithTrendAnalyzer(a *trend.Analyzer) Option {
	return func(e *Engine) {
		if a != nil {
			e.analyzer = a
		}
	}
}

// WithCoherenceScorer replaces the coherence scorer.
func WithCoherenceScorer(s *coherence.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithClock replaces the wall clock, letting tests construct deterministic
// window boundaries.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
