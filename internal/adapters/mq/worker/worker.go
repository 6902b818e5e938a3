// Package worker drains the stream consumer into the ingestion engine.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tabrizchi/sib/internal/adapters/mq/stream"
	service "github.com/tabrizchi/sib/internal/app"
	"github.com/tabrizchi/sib/internal/domain/dedupe"
	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/types"
	"github.com/tabrizchi/sib/pkg/logger"
	"github.com/tabrizchi/sib/pkg/metrics"
)

const defaultWorkerCount = 4

// Ingestor is the slice of the engine the workers call.
type Ingestor interface {
	Ingest(ctx context.Context, r model.SignalReading) (model.SignalReading, *model.DriftEvaluation, error)
}

// signalMessage mirrors the JSON payload on the signal topic. EventID is
// optional; when present it drives idempotent redelivery handling.
type signalMessage struct {
	EventID   string             `json:"event_id,omitempty"`
	Agent     string             `json:"agent"`
	State     string             `json:"state"`
	Strength  float64            `json:"strength"`
	Timestamp time.Time          `json:"timestamp"`
	Context   map[string]float64 `json:"context,omitempty"`
}

// Pool runs a fixed set of workers over the consumer's message channel.
// Per-agent write ordering is the engine's job; the pool only decodes,
// dedupes and hands off.
type Pool struct {
	count    int
	messages <-chan stream.Message
	ingestor Ingestor
	deduper  dedupe.Deduper
	log      logger.Logger

	wg sync.WaitGroup
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.count = n
		}
	}
}

// WithDeduper sets the idempotency tracker for redelivered messages.
func WithDeduper(d dedupe.Deduper) Option {
	return func(p *Pool) {
		if d != nil {
			p.deduper = d
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(log logger.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPool creates a worker pool reading from messages.
func NewPool(messages <-chan stream.Message, ingestor Ingestor, opts ...Option) *Pool {
	p := &Pool{
		count:    defaultWorkerCount,
		messages: messages,
		ingestor: ingestor,
		deduper:  dedupe.NewRingDeduper(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Named("stream-worker")
	}
	return p
}

// Start launches the workers. They exit when the message channel closes or
// the context ends.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-p.messages:
			if !ok {
				return
			}
			p.process(ctx, msg)
		}
	}
}

// process decodes and ingests one message. Failures are logged and counted,
// never fatal: the stream must keep draining.
func (p *Pool) process(ctx context.Context, msg stream.Message) {
	var sm signalMessage
	if err := json.Unmarshal(msg.Value, &sm); err != nil {
		metrics.RecordStreamMessage(metrics.StreamDecodeErr)
		p.log.Warn(ctx, "undecodable message", logger.Error(err))
		return
	}

	if sm.EventID != "" && p.deduper.SeenAndRecord(ctx, sm.EventID) {
		metrics.RecordStreamMessage(metrics.StreamDuplicate)
		return
	}

	reading := model.SignalReading{
		Agent:     sm.Agent,
		State:     types.AgentState(sm.State),
		Strength:  sm.Strength,
		Timestamp: sm.Timestamp,
		Context:   sm.Context,
	}
	if _, _, err := p.ingestor.Ingest(ctx, reading); err != nil {
		if errors.Is(err, service.ErrInvalidReading) {
			metrics.RecordStreamMessage(metrics.StreamInvalid)
			p.log.Warn(ctx, "invalid reading", logger.String("agent", sm.Agent), logger.Error(err))
			return
		}
		// Storage failed; allow the broker's redelivery to retry.
		if sm.EventID != "" {
			p.deduper.Unrecord(ctx, sm.EventID)
		}
		metrics.RecordStreamMessage(metrics.StreamFailed)
		p.log.Error(ctx, "ingest failed", logger.String("agent", sm.Agent), logger.Error(err))
		return
	}

	metrics.RecordStreamMessage(metrics.StreamOK)
	metrics.UpdateDedupeTracked(p.deduper.Size())
}

// String describes the pool for startup logging.
func (p *Pool) String() string {
	return fmt.Sprintf("stream worker pool (%d workers)", p.count)
}
