package events

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// Publisher delivers outbox events to the outside world.
type Publisher interface {
	Publish(ctx context.Context, event model.OutboxEvent) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by aggregate id, so
// events of one order stay in one partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a synchronous writer that waits for all replicas.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

// Publish sends event and returns once the broker acknowledged it.
func (p *KafkaPublisher) Publish(ctx context.Context, event model.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.AggregateID, 10)),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(strconv.FormatInt(event.ID, 10))},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event %d: %w", event.Type, event.ID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs events. Used when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event model.OutboxEvent) error {
	p.logger.Info("outbox event",
		slog.Int64("event_id", event.ID),
		slog.String("type", event.Type),
		slog.Int64("aggregate_id", event.AggregateID),
		slog.String("payload", string(event.Payload)),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
