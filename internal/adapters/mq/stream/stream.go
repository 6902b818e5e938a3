// Package stream consumes signal readings from a message broker.
//
// The broker feeds the same ingestion path as the HTTP route; delivery is
// at-least-once, so downstream workers deduplicate on the optional event id.
package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/tabrizchi/sib/pkg/logger"
)

// Message is one consumed record.
type Message struct {
	Key   []byte
	Value []byte
}

// Consumer delivers broker messages over a channel until closed.
type Consumer interface {
	// Start begins consuming. The message channel closes when the consumer
	// is closed or the context ends.
	Start(ctx context.Context) error

	// Messages returns the channel of consumed messages.
	Messages() <-chan Message

	// Close stops the consumer and releases broker connections.
	Close() error
}

const messageBuffer = 100

// KafkaConsumer implements Consumer using segmentio/kafka-go with a consumer
// group, so multiple service instances share the topic.
type KafkaConsumer struct {
	brokers  string
	group    string
	topic    string
	reader   *kafka.Reader
	messages chan Message
	log      logger.Logger

	closeOnce sync.Once
}

// NewKafkaConsumer creates a Kafka consumer for the signal topic.
func NewKafkaConsumer(brokers, group, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		brokers:  brokers,
		group:    group,
		topic:    topic,
		messages: make(chan Message, messageBuffer),
		log:      logger.Named("kafka-consumer"),
	}
}

// Start begins reading the topic in a background goroutine.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(c.brokers, ","),
		GroupID:  c.group,
		Topic:    c.topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	go func() {
		defer close(c.messages)
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				// io.EOF means the reader was closed.
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				c.log.Warn(ctx, "read failed",
					logger.String("topic", c.topic),
					logger.Error(err),
				)
				continue
			}
			select {
			case c.messages <- Message{Key: msg.Key, Value: msg.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Messages returns the channel of consumed messages.
func (c *KafkaConsumer) Messages() <-chan Message {
	return c.messages
}

// Close stops the reader. The message channel closes once the read loop
// observes the closed reader.
func (c *KafkaConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.reader != nil {
			err = c.reader.Close()
		}
	})
	return err
}

// ChannelConsumer is an in-process Consumer implementation backed by a Go
// channel, used by tests and local tooling.
type ChannelConsumer struct {
	ch chan Message
}

// NewChannelConsumer creates an in-process consumer.
func NewChannelConsumer() *ChannelConsumer {
	return &ChannelConsumer{ch: make(chan Message, messageBuffer)}
}

// Start is a no-op; the channel is live from construction.
func (c *ChannelConsumer) Start(ctx context.Context) error { return nil }

// Messages returns the channel of consumed messages.
func (c *ChannelConsumer) Messages() <-chan Message { return c.ch }

// Send places a message on the channel as if it came from the broker.
func (c *ChannelConsumer) Send(m Message) { c.ch <- m }

// Close closes the message channel.
func (c *ChannelConsumer) Close() error {
	close(c.ch)
	return nil
}
