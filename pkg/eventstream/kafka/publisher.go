// Package kafka provides a Kafka-backed eventstream publisher.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/crates/pkg/eventstream"
)

// Config holds connection settings for the Kafka publisher.
type Config struct {
	// Brokers is a comma-separated list of bootstrap broker addresses.
	Brokers string

	// Topic is the topic index lifecycle events are written to.
	Topic string
}

// messageWriter is the slice of *kafkago.Writer the publisher needs. Tests
// substitute it to capture published messages without a broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes index lifecycle events to a Kafka topic. Messages are
// keyed by repo so events for one repository land on one partition in order.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka publisher from the given config.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	brokers := splitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}

	if cfg.Topic == "" {
		return nil, errors.New("no kafka topic configured")
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		ErrorLogger: kafkago.LoggerFunc(func(format string, args ...any) {
			logger.Error(fmt.Sprintf(format, args...))
		}),
	}

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

var _ eventstream.Publisher = (*Publisher)(nil)

// PublishIndexCompleted writes an index-completed event keyed by repo.
func (p *Publisher) PublishIndexCompleted(ctx context.Context, event *eventstream.IndexCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return p.publish(ctx, event.Repo, event)
}

// PublishScopeCleared writes a scope-cleared event keyed by repo.
func (p *Publisher) PublishScopeCleared(ctx context.Context, event *eventstream.ScopeClearedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return p.publish(ctx, event.Repo, event)
}

func (p *Publisher) publish(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			out = append(out, b)
		}
	}

	return out
}
