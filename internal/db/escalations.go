package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"sla-service/internal/models"
	"sla-service/internal/store"
)

// CreateEscalation appends an escalation. It generates a new UUID if not provided.
func (d *DB) CreateEscalation(ctx context.Context, esc models.Escalation) error {
	if esc.ID == uuid.Nil {
		esc.ID = uuid.New()
	}

	query := `
	INSERT INTO sla_escalations (id, request_id, escalation_level, triggered_at)
	VALUES ($1, $2, $3, $4)`

	_, err := d.Pool.Exec(ctx, query, esc.ID, esc.RequestID, esc.Checkpoint, esc.TriggeredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEscalation
		}
		return fmt.Errorf("failed to insert escalation: %w", err)
	}
	return nil
}

// ListEscalations returns a request's escalations ordered by level.
func (d *DB) ListEscalations(ctx context.Context, requestID string) ([]models.Escalation, error) {
	query := `
	SELECT id, request_id, escalation_level, triggered_at
	FROM sla_escalations
	WHERE request_id = $1
	ORDER BY escalation_level ASC`

	rows, err := d.Pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalations for %s: %w", requestID, err)
	}
	defer rows.Close()

	var list []models.Escalation
	for rows.Next() {
		var esc models.Escalation
		if err := rows.Scan(&esc.ID, &esc.RequestID, &esc.Checkpoint, &esc.TriggeredAt); err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		list = append(list, esc)
	}
	return list, rows.Err()
}
