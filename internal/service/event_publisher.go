package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/plannivo/booking-engine/internal/domain"
	"github.com/plannivo/booking-engine/pkg/logger"
)

// EventPublisher emits booking lifecycle events to the audit/notification
// sink. Publishing is fire-and-forget; a failed publish is logged and never
// fails the booking operation it describes.
type EventPublisher interface {
	Publish(ctx context.Context, eventType domain.BookingEventType, bookingIDs []string, actorID string, metadata map[string]string)
	Close()
}

// KafkaEventPublisher publishes booking events to a Kafka topic
type KafkaEventPublisher struct {
	client *kgo.Client
	topic  string
}

// KafkaPublisherConfig holds Kafka publisher settings
type KafkaPublisherConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
}

// NewKafkaEventPublisher creates a Kafka-backed event publisher
func NewKafkaEventPublisher(cfg KafkaPublisherConfig) (*KafkaEventPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &KafkaEventPublisher{client: client, topic: cfg.Topic}, nil
}

// Publish emits one event asynchronously
func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType domain.BookingEventType, bookingIDs []string, actorID string, metadata map[string]string) {
	event := domain.BookingEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		BookingIDs: bookingIDs,
		ActorID:    actorID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		logger.Get().Error("failed to marshal booking event",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		return
	}

	key := ""
	if len(bookingIDs) > 0 {
		key = bookingIDs[0]
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
	}

	p.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			logger.Get().Error("failed to publish booking event",
				zap.String("event_type", string(eventType)),
				zap.Strings("booking_ids", bookingIDs),
				zap.Error(err),
			)
		}
	})
}

// Close flushes pending records and shuts the client down
func (p *KafkaEventPublisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}

// NoOpEventPublisher discards all events, used when Kafka is unavailable or
// disabled so the engine keeps serving bookings.
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a NoOpEventPublisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// Publish discards the event
func (p *NoOpEventPublisher) Publish(context.Context, domain.BookingEventType, []string, string, map[string]string) {
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() {}

var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = (*NoOpEventPublisher)(nil)
)
