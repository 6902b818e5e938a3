package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tabrizchi/sib/internal/domain/model"
)

// MemoryStore implements Store with per-agent slices held in memory. It is
// the default backend and the one unit tests run against.
type MemoryStore struct {
	mu        sync.RWMutex
	readings  map[string][]model.SignalReading // ascending event time per agent
	anomalies []model.AnomalyRecord            // ascending detection time
	closed    bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		readings: make(map[string][]model.SignalReading),
	}
}

// AppendReading stores the reading and its optional anomaly under one lock,
// so readers observe the pair atomically.
func (s *MemoryStore) AppendReading(ctx context.Context, r model.SignalReading, a *model.AnomalyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	list := s.readings[r.Agent]
	// Event timestamps are caller-supplied and may arrive out of order.
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Timestamp.After(r.Timestamp)
	})
	list = append(list, model.SignalReading{})
	copy(list[i+1:], list[i:])
	list[i] = r
	s.readings[r.Agent] = list

	if a != nil {
		s.anomalies = append(s.anomalies, *a)
	}
	return nil
}

// ReadingsBetween returns in-range readings newest-first.
func (s *MemoryStore) ReadingsBetween(ctx context.Context, agent string, from, to time.Time, limit int) ([]model.SignalReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []model.SignalReading
	if agent != "" {
		out = collectRange(s.readings[agent], from, to)
	} else {
		for _, list := range s.readings {
			out = append(out, collectRange(list, from, to)...)
		}
	}

	// Event timestamps tie routinely (second-precision wire format); break
	// ties on receipt time so "latest" is well defined.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// collectRange copies readings with event time in [from, to] out of an
// ascending slice.
func collectRange(list []model.SignalReading, from, to time.Time) []model.SignalReading {
	lo := sort.Search(len(list), func(i int) bool {
		return !list[i].Timestamp.Before(from)
	})
	hi := sort.Search(len(list), func(i int) bool {
		return list[i].Timestamp.After(to)
	})
	if lo >= hi {
		return nil
	}
	out := make([]model.SignalReading, hi-lo)
	copy(out, list[lo:hi])
	return out
}

// Agents returns the identifiers of agents with at least one reading, sorted.
func (s *MemoryStore) Agents(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	agents := make([]string, 0, len(s.readings))
	for agent, list := range s.readings {
		if len(list) > 0 {
			agents = append(agents, agent)
		}
	}
	sort.Strings(agents)
	return agents, nil
}

// AnomaliesSince returns anomaly records detected at or after from,
// newest-first.
func (s *MemoryStore) AnomaliesSince(ctx context.Context, agent string, from time.Time) ([]model.AnomalyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []model.AnomalyRecord
	for i := len(s.anomalies) - 1; i >= 0; i-- {
		a := s.anomalies[i]
		if a.DetectedAt.Before(from) {
			continue
		}
		if agent != "" && a.Agent != agent {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out, nil
}

// CountReadings returns the total number of stored readings.
func (s *MemoryStore) CountReadings(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	total := 0
	for _, list := range s.readings {
		total += len(list)
	}
	return total, nil
}

// Close marks the store closed; subsequent calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
