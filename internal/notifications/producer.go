package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travelhub/internal/shared/config"
	"travelhub/pkg/logger"

	"github.com/IBM/sarama"
	circuit "github.com/rubyist/circuitbreaker"
)

// ErrPublisherOpen is returned while the breaker is open and Kafka is not being called.
var ErrPublisherOpen = errors.New("booking event publisher is unavailable")

// NewProducerConfig returns the sarama settings for the booking topic: acks from all
// in-sync replicas, idempotent writes, hash partitioning on the booking id.
func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Idempotent = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// KafkaPublisher sends booking events through a sync producer guarded by a
// consecutive-failure circuit breaker.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	breaker  *circuit.Breaker
	log      *logger.Logger
}

// NewPublisher returns a Kafka publisher, or a no-op one when Kafka is disabled.
func NewPublisher(cfg config.KafkaConfig, log *logger.Logger) (Publisher, error) {
	if !cfg.Enabled {
		log.Info("kafka disabled, booking events will not be published")
		return NoopPublisher{}, nil
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisher(producer, cfg.Topic, cfg.BreakerThreshold, log), nil
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, breakerThreshold int64, log *logger.Logger) *KafkaPublisher {
	if breakerThreshold <= 0 {
		breakerThreshold = 5
	}
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		breaker:  circuit.NewConsecutiveBreaker(breakerThreshold),
		log:      log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *BookingEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Headers:   headers(event),
		Timestamp: event.OccurredAt,
	}

	var partition int32
	var offset int64
	err = p.breaker.CallContext(ctx, func() error {
		var sendErr error
		partition, offset, sendErr = p.producer.SendMessage(msg)
		return sendErr
	}, 0)
	if err != nil {
		if errors.Is(err, circuit.ErrBreakerOpen) {
			return ErrPublisherOpen
		}
		return fmt.Errorf("failed to send booking event: %w", err)
	}

	p.log.DebugContext(ctx, "booking event published",
		"topic", p.topic, "partition", partition, "offset", offset,
		"type", string(event.Type), "booking_id", event.BookingID.String())
	return nil
}

func headers(e *BookingEvent) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(e.ID.String())},
		{Key: []byte("event_type"), Value: []byte(e.Type)},
		{Key: []byte("booking_id"), Value: []byte(e.BookingID.String())},
		{Key: []byte("producer"), Value: []byte("travelhub-api")},
	}
}

func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
