package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

const healthCheckTopic = "__healthcheck"

type KafkaOptions struct {
	Broker       string
	Topic        string
	RequiredAcks int16
	MaxRetries   int
}

// KafkaPublisher writes one JSON message per finished lookup, keyed by lookup id.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   logger.Logger
}

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(opts KafkaOptions, log logger.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.RequiredAcks(opts.RequiredAcks)
	config.Producer.Retry.Max = opts.MaxRetries
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer([]string{opts.Broker}, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return NewKafkaPublisherWithProducer(producer, opts.Topic, log), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   log.WithField("component", "kafka_publisher"),
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event entities.LookupEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode lookup event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(event.ID.String()),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		k.logger.Errorf("Failed to publish lookup event %s: %v", event.ID, err)
		return fmt.Errorf("failed to publish lookup event: %w", err)
	}

	k.logger.Debugf("Published lookup event %s to %s[%d]@%d", event.ID, k.topic, partition, offset)
	return nil
}

func (k *KafkaPublisher) HealthCheck(ctx context.Context) error {
	if k.producer == nil {
		return errors.New("kafka producer is nil")
	}

	msg := &sarama.ProducerMessage{
		Topic: healthCheckTopic,
		Value: sarama.ByteEncoder([]byte("ping")),
	}
	_, _, err := k.producer.SendMessage(msg)
	return err
}

func (k *KafkaPublisher) Close() error {
	if k.producer == nil {
		return nil
	}
	return k.producer.Close()
}

// NoopPublisher drops events. Used when Kafka is disabled.
type NoopPublisher struct{}

var _ ports.EventPublisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, entities.LookupEvent) error { return nil }

func (NoopPublisher) HealthCheck(context.Context) error { return nil }

func (NoopPublisher) Close() error { return nil }
