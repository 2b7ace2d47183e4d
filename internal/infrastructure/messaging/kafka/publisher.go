// Package kafka publishes appeal domain events to the event stream.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/segmentio/kafka-go"

	"github.com/openappeals/casework/internal/application/casework"
	"github.com/openappeals/casework/internal/config"
	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
)

var ErrPublisherClosed = errors.New(errors.ErrCodeInternal, "event publisher closed")

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes appeal events to a single topic, keyed by appeal id so
// every event for one appeal lands on the same partition in order.
type Publisher struct {
	writer writerInterface
	logger logging.Logger
	closed atomic.Bool
}

// NewPublisher builds a Publisher from cfg.
func NewPublisher(cfg config.KafkaConfig, log logging.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
	}
	return &Publisher{writer: w, logger: log.Named("kafka")}
}

// NewPublisherWithWriter wraps an existing writer (for testing).
func NewPublisherWithWriter(w writerInterface, log logging.Logger) *Publisher {
	return &Publisher{writer: w, logger: log}
}

// Publish serialises e and writes it keyed by appeal id.
func (p *Publisher) Publish(ctx context.Context, e appeal.Event) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding event")
	}

	msg := kafka.Message{
		Key:   []byte(e.AppealID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "writing event to stream")
	}

	p.logger.Debug("event published",
		logging.String("event_type", string(e.Type)),
		logging.String("appeal_id", string(e.AppealID)))
	return nil
}

// Close flushes and shuts the writer down.
func (p *Publisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}

var _ casework.EventPublisher = (*Publisher)(nil)
