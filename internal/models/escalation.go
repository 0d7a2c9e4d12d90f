package models

import (
	"time"

	"github.com/google/uuid"
)

// Escalation is an append-only record of a fired checkpoint.
type Escalation struct {
	ID          uuid.UUID `json:"id"`
	RequestID   string    `json:"request_id"`
	Checkpoint  float64   `json:"escalation_level"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// AlertLevel is the advisory progress classification of an active record.
type AlertLevel string

const (
	AlertNone     AlertLevel = ""
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

const (
	WarningRatio  = 0.7
	CriticalRatio = 0.9
)

// AlertLevelFor classifies a progress ratio.
func AlertLevelFor(ratio float64) AlertLevel {
	switch {
	case ratio >= CriticalRatio:
		return AlertCritical
	case ratio >= WarningRatio:
		return AlertWarning
	default:
		return AlertNone
	}
}

// ActiveStatus is a dashboard view of an active record.
type ActiveStatus struct {
	Record
	Progress   float64    `json:"progress"`
	AlertLevel AlertLevel `json:"alert_level,omitempty"`
	Escalated  []float64  `json:"escalated"`
}
