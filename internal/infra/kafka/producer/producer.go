package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/contentful-watermark/internal/model"
)

// sender is the subset of the wbf Kafka producer used here.
type sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}

// Producer publishes pipeline outcomes to Kafka.
type Producer struct {
	Client   *wbfkafka.Producer
	sender   sender
	strategy retry.Strategy
}

// New creates a new Producer writing to topic.
// - brokers: list of Kafka brokers
// - topic: outcome topic
// - s: retry strategy
func New(
	brokers []string,
	topic string,
	s retry.Strategy,
) *Producer {
	producer := wbfkafka.NewProducer(brokers, topic)

	return &Producer{
		Client:   producer,
		sender:   producer,
		strategy: s,
	}
}

// Notify serializes the outcome to JSON and sends it to Kafka.
// The invocation id is used as the message key.
func (p *Producer) Notify(ctx context.Context, o model.Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	if err = p.sender.SendWithRetry(ctx, p.strategy, []byte(o.InvocationID), data); err != nil {
		return fmt.Errorf("failed to send outcome: %w", err)
	}

	return nil
}
