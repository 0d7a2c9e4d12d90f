package store

import (
	"context"
	"errors"
	"time"

	"sla-service/internal/models"
)

var (
	// ErrDuplicateRecord is returned when a record already exists for a request.
	ErrDuplicateRecord = errors.New("sla record already exists")
	// ErrNotFound is returned when no record exists for a request.
	ErrNotFound = errors.New("sla record not found")
	// ErrAlreadyResolved is returned when resolving a record that is no longer active.
	ErrAlreadyResolved = errors.New("sla record already resolved")
	// ErrDuplicateEscalation is returned when a checkpoint was already recorded for a request.
	ErrDuplicateEscalation = errors.New("escalation already recorded")
)

// Resolution is the terminal transition applied to an active record.
type Resolution struct {
	Status      models.Status
	CompletedAt *time.Time
	ViolatedAt  *time.Time
	UpdatedAt   time.Time
}

// Store persists SLA records, escalations and statistics.
type Store interface {
	// CreateRecord inserts a new record, failing with ErrDuplicateRecord
	// when one exists for the request id.
	CreateRecord(ctx context.Context, rec models.Record) error

	// GetRecord returns the record for a request id or ErrNotFound.
	GetRecord(ctx context.Context, requestID string) (models.Record, error)

	// ListActiveRecords returns every record still in the active state.
	ListActiveRecords(ctx context.Context) ([]models.Record, error)

	// ResolveRecord moves an active record to a terminal status. It fails
	// with ErrAlreadyResolved when the record is not active.
	ResolveRecord(ctx context.Context, requestID string, res Resolution) error

	// CreateEscalation appends an escalation, failing with
	// ErrDuplicateEscalation for a repeated (request id, checkpoint) pair.
	CreateEscalation(ctx context.Context, esc models.Escalation) error

	// ListEscalations returns escalations for a request ordered by checkpoint.
	ListEscalations(ctx context.Context, requestID string) ([]models.Escalation, error)

	// ListCategories returns the distinct categories of stored records.
	ListCategories(ctx context.Context) ([]string, error)

	// CountOutcomes counts records of a category created in [from, to].
	CountOutcomes(ctx context.Context, category string, from, to time.Time) (models.OutcomeCounts, error)

	// SaveStatistics replaces the statistics row for (category, period).
	SaveStatistics(ctx context.Context, st models.Statistics) error

	// ListStatistics returns every statistics row ordered by category.
	ListStatistics(ctx context.Context) ([]models.Statistics, error)

	Close() error
}
