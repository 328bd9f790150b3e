package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog-media/internal/config"
	"catalog-media/internal/domain"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

// ProducerClient publishes asset lifecycle events.
type ProducerClient struct {
	producer *wbkafka.Producer
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic),
	}
}

func (p *ProducerClient) SendEvent(ctx context.Context, strategy retry.Strategy, event *domain.AssetEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal asset event: %w", err)
	}
	return p.producer.SendWithRetry(ctx, strategy, []byte(event.AssetID), value)
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}
