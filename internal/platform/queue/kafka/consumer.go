package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"idproof/internal/platform/config"
	"idproof/internal/platform/queue"
)

// Consumer reads job messages in a consumer group. Offsets commit only after
// the handler returns nil, so a crashed worker redelivers; the result store's
// idempotent writes absorb the duplicates.
type Consumer struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewConsumer joins the worker consumer group on the job topic.
func NewConsumer(cfg config.KafkaConfig, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.JobTopic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return &Consumer{client: client, logger: logger}, nil
}

func (c *Consumer) Run(ctx context.Context, handler queue.Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var failed bool
		fetches.EachRecord(func(record *kgo.Record) {
			if failed {
				return
			}
			msg := queue.Message{
				Topic:   record.Topic,
				Key:     record.Key,
				Payload: record.Value,
			}
			if err := handler(ctx, msg); err != nil {
				// Leave the batch uncommitted; the group redelivers.
				failed = true
				c.logger.ErrorContext(ctx, "job handler failed",
					"topic", record.Topic,
					"key", string(record.Key),
					"error", err,
				)
			}
		})
		if failed {
			continue
		}
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.ErrorContext(ctx, "commit offsets failed", "error", err)
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
