package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SIB_CONFIG is set
//  3. env (prefix SIB_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("SIB_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SIB_ADDR, SIB_BASELINE_WINDOW_MINUTES, ...
	// Map env keys like SIB_MAX_LIMIT -> max_limit (flat keys, underscores
	// preserved to match the koanf tags on the struct).
	envProvider := env.Provider("SIB_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "sib_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces the relationships between configured values that the
// engine assumes.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != "memory" && c.Store != "sqlite":
		return fmt.Errorf("%w: store must be memory or sqlite, got %q", ErrInvalidConfig, c.Store)
	case c.BaselineWindowMinutes < 1:
		return fmt.Errorf("%w: baseline_window_minutes must be >= 1", ErrInvalidConfig)
	case c.MinBaselineSamples < 1:
		return fmt.Errorf("%w: min_baseline_samples must be >= 1", ErrInvalidConfig)
	case c.WarnThresholdPercent <= 0 || c.CriticalThresholdPercent <= c.WarnThresholdPercent:
		return fmt.Errorf("%w: thresholds must satisfy 0 < warn < critical", ErrInvalidConfig)
	case c.StatusCautionPercent <= 0 || c.StatusWarningPercent <= c.StatusCautionPercent || c.StatusCriticalPercent <= c.StatusWarningPercent:
		return fmt.Errorf("%w: status tiers must satisfy 0 < caution < warning < critical", ErrInvalidConfig)
	case c.TrendMargin <= 0:
		return fmt.Errorf("%w: trend_margin must be > 0", ErrInvalidConfig)
	case c.MaxWindowMinutes < c.DefaultWindowMinutes || c.DefaultWindowMinutes < 1:
		return fmt.Errorf("%w: window minutes must satisfy 1 <= default <= max", ErrInvalidConfig)
	case c.MaxLimit < c.DefaultLimit || c.DefaultLimit < 1:
		return fmt.Errorf("%w: limits must satisfy 1 <= default <= max", ErrInvalidConfig)
	}
	return nil
}
