package models

import "time"

// Lifecycle event names carried on the events topic.
const (
	EventRequestCreated   = "created"
	EventRequestCompleted = "completed"
)

// LifecycleEvent is an inbound request-lifecycle message.
type LifecycleEvent struct {
	Event       string    `json:"event"`
	RequestID   string    `json:"request_id"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// AttachRequest is the HTTP body for attaching an SLA.
type AttachRequest struct {
	RequestID string    `json:"request_id" binding:"required"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// CompleteRequest is the HTTP body for completing a request.
type CompleteRequest struct {
	CompletedAt time.Time `json:"completed_at"`
}
