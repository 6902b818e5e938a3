// Package dedupe defines the interface for idempotency tracking.
//
// The stream consumer delivers at-least-once; replayed messages carrying the
// same event id must not be ingested twice.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen event IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set, allowing a retry after a
	// message was marked seen but failed to ingest.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of ids currently tracked.
	Size() int
}

// ringDeduper implements Deduper with a map plus a fixed-size ring, evicting
// the oldest id once the ring wraps.
type ringDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
	ring []string
	next int
}

// Option applies a configuration option to the deduper.
type Option func(*ringDeduper)

// WithMaxSize bounds how many ids are tracked before the oldest is evicted.
func WithMaxSize(n int) Option {
	return func(d *ringDeduper) {
		if n > 0 {
			d.ring = make([]string, n)
		}
	}
}

const defaultMaxSize = 50_000

// NewRingDeduper creates a bounded deduper.
func NewRingDeduper(opts ...Option) Deduper {
	d := &ringDeduper{
		seen: make(map[string]struct{}),
		ring: make([]string, defaultMaxSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = id
	d.next = (d.next + 1) % len(d.ring)
	d.seen[id] = struct{}{}
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	// Clear the ring slot too: a stale slot would evict the id's seen entry
	// early if it is re-recorded into a different slot after a retry.
	for i, v := range d.ring {
		if v == id {
			d.ring[i] = ""
			break
		}
	}
}

func (d *ringDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
