package service

import "errors"

// Sentinel kinds for engine outcomes. NoBaseline and NoData are expected,
// non-fatal results the caller handles explicitly; they are not system
// faults.
var (
	ErrInvalidReading = errors.New("invalid reading")
	ErrNoBaseline     = errors.New("no baseline")
	ErrNoData         = errors.New("no data")
)

// IsNoBaseline reports whether err is the no-baseline outcome.
func IsNoBaseline(err error) bool { return errors.Is(err, ErrNoBaseline) }

// IsNoData reports whether err is the no-data outcome.
func IsNoData(err error) bool { return errors.Is(err, ErrNoData) }

// IsInvalidReading reports whether err is a validation failure.
func IsInvalidReading(err error) bool { return errors.Is(err, ErrInvalidReading) }
