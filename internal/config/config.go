// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Defaults live in New; Load layers file and env on top.
//   - No package-level mutable state: every threshold travels in the Config
//     and is injected into the engine at construction time.
package config

import "context"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr"`

	// Store selects the backing store: "memory" or "sqlite".
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is "sqlite".
	SQLitePath string `koanf:"sqlite_path"`

	// BaselineWindowMinutes is the rolling baseline window length.
	BaselineWindowMinutes int `koanf:"baseline_window_minutes"`

	// MinBaselineSamples is the minimum in-window readings for a baseline.
	MinBaselineSamples int `koanf:"min_baseline_samples"`

	// WarnThresholdPercent and CriticalThresholdPercent bound the
	// green/yellow/red severity ladder for single readings.
	WarnThresholdPercent     float64 `koanf:"warn_threshold_percent"`
	CriticalThresholdPercent float64 `koanf:"critical_threshold_percent"`

	// StatusCautionPercent, StatusWarningPercent and StatusCriticalPercent
	// bound the four-tier drift status ladder over average variance. This is
	// a separate scale from the severity thresholds above.
	StatusCautionPercent  float64 `koanf:"status_caution_percent"`
	StatusWarningPercent  float64 `koanf:"status_warning_percent"`
	StatusCriticalPercent float64 `koanf:"status_critical_percent"`

	// TrendMargin is the relative margin separating degrading/recovering
	// from stable when comparing window halves.
	TrendMargin float64 `koanf:"trend_margin"`

	// DefaultWindowMinutes and MaxWindowMinutes bound the `minutes` query
	// parameter; DefaultLimit and MaxLimit bound `limit`.
	DefaultWindowMinutes int `koanf:"default_window_minutes"`
	MaxWindowMinutes     int `koanf:"max_window_minutes"`
	DefaultLimit         int `koanf:"default_limit"`
	MaxLimit             int `koanf:"max_limit"`

	// KafkaBrokers is a comma-separated broker list; empty disables the
	// stream consumer.
	KafkaBrokers string `koanf:"kafka_brokers"`

	// KafkaTopic and KafkaGroup configure the signal topic subscription.
	KafkaTopic string `koanf:"kafka_topic"`
	KafkaGroup string `koanf:"kafka_group"`

	// StreamWorkers sets how many workers drain the stream consumer.
	StreamWorkers int `koanf:"stream_workers"`

	// DedupeSize bounds the stream deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config holding the documented defaults. Context is accepted
// first to satisfy the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":8090",
		Store:                    "memory",
		SQLitePath:               "signals.db",
		BaselineWindowMinutes:    10,
		MinBaselineSamples:       5,
		WarnThresholdPercent:     15.0,
		CriticalThresholdPercent: 20.0,
		StatusCautionPercent:     10.0,
		StatusWarningPercent:     15.0,
		StatusCriticalPercent:    20.0,
		TrendMargin:              0.10,
		DefaultWindowMinutes:     30,
		MaxWindowMinutes:         1440,
		DefaultLimit:             100,
		MaxLimit:                 1000,
		KafkaBrokers:             "",
		KafkaTopic:               "signals",
		KafkaGroup:               "sib-ingest",
		StreamWorkers:            4,
		DedupeSize:               50_000,
	}
}
