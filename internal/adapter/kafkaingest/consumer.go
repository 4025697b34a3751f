// Package kafkaingest consumes raw probe readings from a Kafka topic and
// feeds them through the ingestion pipeline. Offsets are committed only
// after the reading is persisted. Group commits are high-water marks, so a
// reading that failed to persist is retried with backoff before anything
// later is fetched; a storage outage stalls the partition instead of
// skipping readings.
package kafkaingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
	"github.com/couchcryptid/water-quality-monitor/internal/pipeline"
)

const (
	initialRetryBackoff = time.Second
	maxRetryBackoff     = 30 * time.Second
)

// Ingester runs a raw reading through the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, raw domain.RawReading) (pipeline.Result, error)
}

// messageReader is the subset of kafkago.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads probe readings from a Kafka topic into the pipeline.
type Consumer struct {
	reader   messageReader
	ingester Ingester
	logger   *slog.Logger
	metrics  *observability.Metrics

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewConsumer creates a Kafka consumer for the given brokers, topic, and
// consumer group.
func NewConsumer(brokers []string, topic, groupID string, ingester Ingester, logger *slog.Logger, metrics *observability.Metrics) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{
		reader:         reader,
		ingester:       ingester,
		logger:         logger,
		metrics:        metrics,
		initialBackoff: initialRetryBackoff,
		maxBackoff:     maxRetryBackoff,
	}
}

// Run consumes until the context is cancelled. Returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("kafka consumer starting")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		c.metrics.KafkaMessagesConsumed.Inc()

		if err := c.process(ctx, msg); err != nil {
			c.metrics.KafkaConsumeErrors.Inc()
			if errors.Is(err, domain.ErrStorageUnavailable) {
				// Committing a later offset would skip this reading for
				// good, so the partition stalls until storage recovers.
				if err := c.retryUntilStored(ctx, msg); err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return nil
					}
					return err
				}
			} else {
				c.logger.Error("skipping undecodable message",
					"offset", msg.Offset, "error", err)
			}
		}

		if err := c.commit(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafkago.Message) error {
	raw, err := decodeRawReading(msg)
	if err != nil {
		return err
	}

	result, err := c.ingester.Ingest(ctx, raw)
	if err != nil {
		return err
	}

	c.logger.Debug("kafka reading ingested",
		"offset", msg.Offset, "id", result.Reading.ID, "severity", result.Severity.String())
	return nil
}

// retryUntilStored re-runs a reading whose persistence failed, with
// exponential backoff, until it is stored or the context ends.
func (c *Consumer) retryUntilStored(ctx context.Context, msg kafkago.Message) error {
	backoff := c.initialBackoff
	for {
		c.logger.Warn("storage unavailable, retrying message",
			"offset", msg.Offset, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		err := c.process(ctx, msg)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrStorageUnavailable) {
			return err
		}
		c.metrics.KafkaConsumeErrors.Inc()

		if backoff < c.maxBackoff {
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafkago.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("commit offset: %w", err)
	}
	return nil
}

// Close releases the underlying reader and its group membership.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// decodeRawReading unmarshals a Kafka message into a raw reading. Only the
// envelope has to be valid JSON; individual measurement fields degrade to
// absent during parsing, matching HTTP submissions.
func decodeRawReading(msg kafkago.Message) (domain.RawReading, error) {
	var raw domain.RawReading
	if err := json.Unmarshal(msg.Value, &raw); err != nil {
		return domain.RawReading{}, fmt.Errorf("decode reading message: %w", err)
	}
	return raw, nil
}
