// Package consumer wraps a franz-go consumer group behind a small Handler
// contract so domain packages never touch the Kafka client directly.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"riskgate/internal/platform/config"
)

// Message is one consumed record. Records are keyed by correlation id, so
// per-key ordering is guaranteed by partition assignment.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Handler processes one message. Returning nil commits the record; errors
// are logged and the record is committed anyway. Redelivering a message the
// pipeline could not handle would loop forever; the pipeline converts
// failures into rejection responses instead.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer runs a consumer group over the given topics.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New creates a consumer group client subscribed to topics.
func New(cfg config.Kafka, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until the context is cancelled. Each record is handed to the
// handler and committed regardless of the handler's verdict.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()

	for {
		fetches := c.client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var processed []*kgo.Record
		fetches.EachRecord(func(rec *kgo.Record) {
			msg := &Message{Topic: rec.Topic, Key: rec.Key, Value: rec.Value}
			if err := c.handler.Handle(ctx, msg); err != nil {
				c.logger.Error("message handler failed, committing anyway",
					"topic", rec.Topic,
					"key", string(rec.Key),
					"error", err,
				)
			}
			processed = append(processed, rec)
		})

		if len(processed) > 0 {
			if err := c.client.CommitRecords(ctx, processed...); err != nil {
				c.logger.Error("commit records failed", "error", err)
			}
		}
	}
}
