// Package repository defines the signal store port and its implementations.
//
// The store is an append-only log of signal readings and derived anomaly
// records, queryable by agent and time range. Time-range queries return
// results newest-first. Validation happens before the store; implementations
// persist whatever they are handed.
package repository

import (
	"context"
	"time"

	"github.com/tabrizchi/sib/internal/domain/model"
)

// Store provides append and query access to readings and anomalies.
type Store interface {
	// AppendReading persists a reading and, when the ingest evaluation
	// crossed a threshold, its anomaly record. The pair becomes visible
	// atomically: concurrent readers see both or neither.
	AppendReading(ctx context.Context, r model.SignalReading, a *model.AnomalyRecord) error

	// ReadingsBetween returns readings whose event time falls in [from, to],
	// newest-first. An empty agent matches all agents. A limit <= 0 means
	// no cap.
	ReadingsBetween(ctx context.Context, agent string, from, to time.Time, limit int) ([]model.SignalReading, error)

	// Agents returns the identifiers of all agents with at least one reading.
	Agents(ctx context.Context) ([]string, error)

	// AnomaliesSince returns anomaly records detected at or after from,
	// newest-first. An empty agent matches all agents.
	AnomaliesSince(ctx context.Context, agent string, from time.Time) ([]model.AnomalyRecord, error)

	// CountReadings returns the total number of stored readings.
	CountReadings(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
