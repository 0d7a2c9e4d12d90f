package models

import (
	"fmt"
	"math"
	"time"
)

// Priority ranks how urgently a request category must be handled.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Status is the lifecycle state of an SLA record.
type Status string

const (
	StatusActive   Status = "active"
	StatusMet      Status = "met"
	StatusViolated Status = "violated"
)

// Terminal reports whether the record has left the active state.
func (s Status) Terminal() bool {
	return s == StatusMet || s == StatusViolated
}

// Definition is the configured commitment for a request category.
// Checkpoints are hours elapsed since creation at which an escalation is due.
type Definition struct {
	Category    string    `json:"category" yaml:"category"`
	TargetHours float64   `json:"target_hours" yaml:"target_hours"`
	Priority    Priority  `json:"priority" yaml:"priority"`
	Checkpoints []float64 `json:"checkpoints" yaml:"checkpoints"`
}

// Target returns the target duration of the definition.
func (d Definition) Target() time.Duration {
	return Hours(d.TargetHours)
}

// Validate checks the definition invariants: a positive target, a known
// priority, and checkpoints strictly increasing inside (0, target).
func (d Definition) Validate() error {
	if d.Category == "" {
		return fmt.Errorf("category is required")
	}
	if d.TargetHours <= 0 || math.IsNaN(d.TargetHours) || math.IsInf(d.TargetHours, 0) {
		return fmt.Errorf("category %s: target_hours must be positive, got %v", d.Category, d.TargetHours)
	}
	if !d.Priority.Valid() {
		return fmt.Errorf("category %s: unknown priority %q", d.Category, d.Priority)
	}
	prev := 0.0
	for i, cp := range d.Checkpoints {
		if cp <= prev {
			return fmt.Errorf("category %s: checkpoint %d (%v) must be greater than %v", d.Category, i, cp, prev)
		}
		if cp >= d.TargetHours {
			return fmt.Errorf("category %s: checkpoint %v must be below target %v", d.Category, cp, d.TargetHours)
		}
		prev = cp
	}
	return nil
}

// Record is the persisted SLA instance for one request.
type Record struct {
	RequestID   string     `json:"request_id"`
	Category    string     `json:"category"`
	TargetHours float64    `json:"target_hours"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	TargetAt    time.Time  `json:"target_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ViolatedAt  *time.Time `json:"violated_at,omitempty"`
	InsertedAt  time.Time  `json:"inserted_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewRecord builds an active record for a request created at createdAt under def.
func NewRecord(requestID string, category string, def Definition, createdAt, now time.Time) Record {
	return Record{
		RequestID:   requestID,
		Category:    category,
		TargetHours: def.TargetHours,
		Priority:    def.Priority,
		Status:      StatusActive,
		CreatedAt:   createdAt,
		TargetAt:    createdAt.Add(def.Target()),
		InsertedAt:  now,
		UpdatedAt:   now,
	}
}

// Hours converts fractional hours to a duration.
func Hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
