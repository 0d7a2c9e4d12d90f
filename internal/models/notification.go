package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType distinguishes outbound SLA notices.
type NotificationType string

const (
	NotificationEscalation NotificationType = "escalation"
	NotificationViolation  NotificationType = "violation"
)

// Notification is pushed to every configured sink.
type Notification struct {
	ID         uuid.UUID        `json:"id"`
	Type       NotificationType `json:"type"`
	RequestID  string           `json:"request_id"`
	Category   string           `json:"category"`
	Priority   Priority         `json:"priority"`
	Checkpoint *float64         `json:"checkpoint,omitempty"`
	ViolatedAt *time.Time       `json:"violated_at,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewEscalationNotification builds the notice for a fired checkpoint.
func NewEscalationNotification(rec Record, checkpoint float64, at time.Time) Notification {
	cp := checkpoint
	return Notification{
		ID:         uuid.New(),
		Type:       NotificationEscalation,
		RequestID:  rec.RequestID,
		Category:   rec.Category,
		Priority:   rec.Priority,
		Checkpoint: &cp,
		Timestamp:  at,
	}
}

// NewViolationNotification builds the notice for a breached deadline.
func NewViolationNotification(rec Record, at time.Time) Notification {
	violatedAt := at
	return Notification{
		ID:         uuid.New(),
		Type:       NotificationViolation,
		RequestID:  rec.RequestID,
		Category:   rec.Category,
		Priority:   rec.Priority,
		ViolatedAt: &violatedAt,
		Timestamp:  at,
	}
}

// Subject is a one-line human summary used by chat sinks.
func (n Notification) Subject() string {
	switch n.Type {
	case NotificationEscalation:
		if n.Checkpoint != nil {
			return fmt.Sprintf("SLA escalation: %s (%s) reached %gh", n.RequestID, n.Category, *n.Checkpoint)
		}
		return fmt.Sprintf("SLA escalation: %s (%s)", n.RequestID, n.Category)
	case NotificationViolation:
		return fmt.Sprintf("SLA violated: %s (%s)", n.RequestID, n.Category)
	default:
		return fmt.Sprintf("SLA notice: %s", n.RequestID)
	}
}
