package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sla-service/internal/models"
	"sla-service/internal/store"
)

const recordColumns = `
	request_id, category, target_hours, target_date, priority, status,
	completed_at, violated_at, created_at, inserted_at, updated_at`

// CreateRecord inserts a new SLA record.
func (d *DB) CreateRecord(ctx context.Context, rec models.Record) error {
	query := `
	INSERT INTO sla_records (` + recordColumns + `
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := d.Pool.Exec(ctx, query,
		rec.RequestID,
		rec.Category,
		rec.TargetHours,
		rec.TargetAt,
		string(rec.Priority),
		string(rec.Status),
		rec.CompletedAt,
		rec.ViolatedAt,
		rec.CreatedAt,
		rec.InsertedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to insert sla record: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (models.Record, error) {
	var rec models.Record
	var priority, status string
	err := row.Scan(
		&rec.RequestID,
		&rec.Category,
		&rec.TargetHours,
		&rec.TargetAt,
		&priority,
		&status,
		&rec.CompletedAt,
		&rec.ViolatedAt,
		&rec.CreatedAt,
		&rec.InsertedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return models.Record{}, err
	}
	rec.Priority = models.Priority(priority)
	rec.Status = models.Status(status)
	return rec, nil
}

// GetRecord fetches the SLA record for a request.
func (d *DB) GetRecord(ctx context.Context, requestID string) (models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM sla_records WHERE request_id = $1`

	rec, err := scanRecord(d.Pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Record{}, store.ErrNotFound
		}
		return models.Record{}, fmt.Errorf("failed to get sla record %s: %w", requestID, err)
	}
	return rec, nil
}

// ListActiveRecords returns all active records ordered by target date.
func (d *DB) ListActiveRecords(ctx context.Context) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM sla_records WHERE status = $1 ORDER BY target_date ASC`

	rows, err := d.Pool.Query(ctx, query, string(models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to list active sla records: %w", err)
	}
	defer rows.Close()

	var list []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sla record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// ResolveRecord transitions an active record; the status guard in the WHERE
// clause makes the first resolver win.
func (d *DB) ResolveRecord(ctx context.Context, requestID string, res store.Resolution) error {
	query := `
	UPDATE sla_records
	SET status = $1,
	    completed_at = $2,
	    violated_at = $3,
	    updated_at = $4
	WHERE request_id = $5 AND status = $6`

	result, err := d.Pool.Exec(ctx, query,
		string(res.Status),
		res.CompletedAt,
		res.ViolatedAt,
		res.UpdatedAt,
		requestID,
		string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to resolve sla record %s: %w", requestID, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = d.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sla_records WHERE request_id = $1)`, requestID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to resolve sla record %s: %w", requestID, err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrAlreadyResolved
}

// ListCategories returns the distinct categories of stored records.
func (d *DB) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := d.Pool.Query(ctx, `SELECT DISTINCT category FROM sla_records ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var list []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CountOutcomes counts a category's records created inside [from, to].
func (d *DB) CountOutcomes(ctx context.Context, category string, from, to time.Time) (models.OutcomeCounts, error) {
	query := `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'met'),
		COUNT(*) FILTER (WHERE status = 'violated'),
		COUNT(*) FILTER (WHERE status = 'active')
	FROM sla_records
	WHERE category = $1 AND created_at >= $2 AND created_at <= $3`

	var c models.OutcomeCounts
	if err := d.Pool.QueryRow(ctx, query, category, from, to).Scan(&c.Total, &c.Met, &c.Violated, &c.Active); err != nil {
		return models.OutcomeCounts{}, fmt.Errorf("failed to count outcomes for %s: %w", category, err)
	}
	return c, nil
}
