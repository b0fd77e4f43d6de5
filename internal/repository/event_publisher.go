package repository

import (
	"context"
	"fmt"

	"CrashRadar/internal/domain/models"
	"CrashRadar/internal/domain/repository"
	pkgkafka "CrashRadar/pkg/kafka"
	applogger "CrashRadar/pkg/logger"
)

// KafkaEventPublisher implements EventPublisher for Kafka. Events are keyed by
// contract version so consumers see one ordered stream per feature layout.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka prediction publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishPrediction(ctx context.Context, ev *models.PredictionEvent) error {
	if ev == nil {
		return fmt.Errorf("nil prediction event")
	}
	return p.producer.Publish(ctx, p.topic, []byte(ev.ContractVersion), ev)
}

// PublishMessage lets the log collector ship batches through the same producer.
func (p *KafkaEventPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopEventPublisher drops events. It is used when Kafka is disabled.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishPrediction(context.Context, *models.PredictionEvent) error { return nil }
func (NopEventPublisher) Close() error                                                  { return nil }

var (
	_ repository.EventPublisher = (*KafkaEventPublisher)(nil)
	_ repository.EventPublisher = NopEventPublisher{}
	_ applogger.Publisher       = (*KafkaEventPublisher)(nil)
)
