// Package kafka implements the job queue on franz-go.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"idproof/internal/platform/config"
)

// Producer publishes job messages synchronously so the submitter knows the
// enqueue landed before it records the correlation id on the session.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects to the brokers and ensures the job topic exists.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerBatchMaxBytes(1 << 20),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	ctx := context.Background()
	// CreateTopic is idempotent for our purposes: "already exists" is fine.
	if _, err := admin.CreateTopic(ctx, 3, 1, nil, cfg.JobTopic); err != nil {
		topics, listErr := admin.ListTopics(ctx, cfg.JobTopic)
		if listErr != nil || !topics.Has(cfg.JobTopic) {
			client.Close()
			return nil, fmt.Errorf("ensure job topic %q: %w", cfg.JobTopic, err)
		}
	}

	return &Producer{client: client}, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key, payload []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: payload}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}
