package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"sla-service/internal/models"
)

// MessageWriter is the subset of kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes SLA notifications as JSON keyed by request id.
type Producer struct {
	writer MessageWriter
}

// NewProducer creates a producer for the notification topic.
func NewProducer(cfg Config) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Broker),
		Topic:                  cfg.NotifyTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w MessageWriter) *Producer {
	return &Producer{writer: w}
}

func (p *Producer) Name() string { return "kafka" }

// Send writes n to the topic.
func (p *Producer) Send(ctx context.Context, n models.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(n.RequestID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
