package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"sla-service/internal/logging"
	"sla-service/internal/models"
	"sla-service/internal/monitor"
	"sla-service/internal/utils"
)

const (
	handleAttempts = 5
	handleDelay    = 2 * time.Second
	fetchBackoff   = time.Second
)

// Config selects the broker and topics.
type Config struct {
	Broker      string
	EventsTopic string
	NotifyTopic string
	GroupID     string
}

// Lifecycle is the part of the monitor driven by request events.
type Lifecycle interface {
	Attach(ctx context.Context, requestID, category string, createdAt time.Time) (models.Record, error)
	Complete(ctx context.Context, requestID string, completedAt time.Time) error
}

// ErrInvalidEvent marks a message that can never be processed.
var ErrInvalidEvent = errors.New("invalid lifecycle event")

// Consumer reads request lifecycle events and feeds them to the monitor.
type Consumer struct {
	reader    *kafka.Reader
	lifecycle Lifecycle
	logger    *logging.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewConsumer creates a group reader on the events topic.
func NewConsumer(cfg Config, lifecycle Lifecycle, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Broker},
		GroupID:     cfg.GroupID,
		Topic:       cfg.EventsTopic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{reader: reader, lifecycle: lifecycle, logger: logger, ctx: ctx, cancel: cancel}
}

// Start consumes in a goroutine until Close.
func (c *Consumer) Start(wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka consumer started on topic %s", c.reader.Config().Topic)

		for {
			msg, err := c.reader.FetchMessage(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil {
					c.logger.Info("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				select {
				case <-c.ctx.Done():
					c.logger.Info("Kafka consumer stopped")
					return
				case <-time.After(fetchBackoff):
				}
				continue
			}

			if err := Process(c.ctx, c.lifecycle, c.logger, msg.Value, handleAttempts, handleDelay); err != nil {
				c.logger.Errorf("Skipping message at offset %d: %v", msg.Offset, err)
			}
			if c.ctx.Err() != nil {
				// uncommitted; redelivered to the next consumer
				c.logger.Info("Kafka consumer stopped")
				return
			}

			if err := c.reader.CommitMessages(c.ctx, msg); err != nil && c.ctx.Err() == nil {
				c.logger.Errorf("Commit failed at offset %d: %v", msg.Offset, err)
			}
		}
	}()
}

// Close stops the consume loop and closes the reader.
func (c *Consumer) Close() error {
	c.cancel()
	return c.reader.Close()
}

// Process handles one message, retrying store failures up to attempts
// times. Invalid events and other errors are returned at once.
func Process(ctx context.Context, lifecycle Lifecycle, logger *logging.Logger, value []byte, attempts int, delay time.Duration) error {
	var final error
	err := utils.Retry(ctx, logger, attempts, delay, func() error {
		err := HandleMessage(ctx, lifecycle, value)
		var perr *monitor.PersistenceError
		if errors.As(err, &perr) {
			return err
		}
		final = err
		return nil
	})
	if err != nil {
		return err
	}
	return final
}

// HandleMessage decodes one lifecycle event and applies it. A duplicate
// attach is not an error.
func HandleMessage(ctx context.Context, lifecycle Lifecycle, value []byte) error {
	var ev models.LifecycleEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	ev.RequestID = strings.TrimSpace(ev.RequestID)
	if ev.RequestID == "" {
		return fmt.Errorf("%w: missing request_id", ErrInvalidEvent)
	}

	switch ev.Event {
	case models.EventRequestCreated:
		_, err := lifecycle.Attach(ctx, ev.RequestID, ev.Category, ev.CreatedAt)
		if errors.Is(err, monitor.ErrDuplicateRecord) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to attach %s: %w", ev.RequestID, err)
		}
		return nil
	case models.EventRequestCompleted:
		if err := lifecycle.Complete(ctx, ev.RequestID, ev.CompletedAt); err != nil {
			return fmt.Errorf("failed to complete %s: %w", ev.RequestID, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown event %q", ErrInvalidEvent, ev.Event)
	}
}
