package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/segmentio/kafka-go"
)

// Publisher delivers outbox events to a broker
type Publisher interface {
	Publish(ctx context.Context, events []model.OutboxEvent) error
	Close() error
}

// KafkaPublisher writes events to a single Kafka topic keyed by aggregate id
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes all events in one batch. Either the whole batch is acknowledged or an error is returned.
func (p *KafkaPublisher) Publish(ctx context.Context, events []model.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(evt.AggregateID),
			Value: evt.Payload,
			Time:  evt.CreatedAt,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(evt.EventType)},
			},
		})
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher logs events instead of sending them; used when no broker is configured
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher creates a publisher that writes events to logger
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: logger}
}

// Publish logs each event at info level
func (p *LogPublisher) Publish(_ context.Context, events []model.OutboxEvent) error {
	for _, evt := range events {
		p.log.Info().
			Uint("event_id", evt.ID).
			Str("event_type", evt.EventType).
			Str("aggregate_id", evt.AggregateID).
			RawJSON("payload", evt.Payload).
			Msg("[OUTBOX] event")
	}
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error { return nil }
