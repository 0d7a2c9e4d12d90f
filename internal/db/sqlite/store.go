package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"sla-service/internal/models"
	"sla-service/internal/store"
)

// Store implements store.Store using SQLite
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// NewStore opens (or creates) the database at dbPath and applies the schema
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func utc(t time.Time) time.Time { return t.UTC() }

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// CreateRecord inserts a new SLA record
func (s *Store) CreateRecord(ctx context.Context, rec models.Record) error {
	query := `
		INSERT INTO sla_records (
			request_id, category, target_hours, target_date, priority, status,
			completed_at, violated_at, created_at, inserted_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.RequestID,
		rec.Category,
		rec.TargetHours,
		utc(rec.TargetAt),
		string(rec.Priority),
		string(rec.Status),
		nullTime(rec.CompletedAt),
		nullTime(rec.ViolatedAt),
		utc(rec.CreatedAt),
		utc(rec.InsertedAt),
		utc(rec.UpdatedAt),
	)
	if err != nil {
		if isConstraint(err) {
			return store.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to insert sla record: %w", err)
	}
	return nil
}

const recordColumns = `request_id, category, target_hours, target_date, priority, status,
	completed_at, violated_at, created_at, inserted_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var rec models.Record
	var priority, status string
	var completed, violated sql.NullTime
	err := row.Scan(
		&rec.RequestID,
		&rec.Category,
		&rec.TargetHours,
		&rec.TargetAt,
		&priority,
		&status,
		&completed,
		&violated,
		&rec.CreatedAt,
		&rec.InsertedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return models.Record{}, err
	}
	rec.Priority = models.Priority(priority)
	rec.Status = models.Status(status)
	rec.CompletedAt = timePtr(completed)
	rec.ViolatedAt = timePtr(violated)
	return rec, nil
}

// GetRecord retrieves the SLA record for a request
func (s *Store) GetRecord(ctx context.Context, requestID string) (models.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM sla_records WHERE request_id = ?`, requestID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, store.ErrNotFound
		}
		return models.Record{}, fmt.Errorf("failed to get sla record %s: %w", requestID, err)
	}
	return rec, nil
}

// ListActiveRecords returns active records ordered by target date
func (s *Store) ListActiveRecords(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM sla_records WHERE status = ? ORDER BY target_date ASC`, string(models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to list active sla records: %w", err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sla record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ResolveRecord moves an active record to a terminal status
func (s *Store) ResolveRecord(ctx context.Context, requestID string, res store.Resolution) error {
	query := `
		UPDATE sla_records
		SET status = ?, completed_at = ?, violated_at = ?, updated_at = ?
		WHERE request_id = ? AND status = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		string(res.Status),
		nullTime(res.CompletedAt),
		nullTime(res.ViolatedAt),
		utc(res.UpdatedAt),
		requestID,
		string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to resolve sla record %s: %w", requestID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to resolve sla record %s: %w", requestID, err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM sla_records WHERE request_id = ?`, requestID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve sla record %s: %w", requestID, err)
	}
	return store.ErrAlreadyResolved
}

// CreateEscalation appends an escalation record
func (s *Store) CreateEscalation(ctx context.Context, esc models.Escalation) error {
	if esc.ID == uuid.Nil {
		esc.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sla_escalations (id, request_id, escalation_level, triggered_at) VALUES (?, ?, ?, ?)`,
		esc.ID.String(), esc.RequestID, esc.Checkpoint, utc(esc.TriggeredAt),
	)
	if err != nil {
		if isConstraint(err) {
			return store.ErrDuplicateEscalation
		}
		return fmt.Errorf("failed to insert escalation: %w", err)
	}
	return nil
}

// ListEscalations returns a request's escalations ordered by level
func (s *Store) ListEscalations(ctx context.Context, requestID string) ([]models.Escalation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, escalation_level, triggered_at FROM sla_escalations WHERE request_id = ? ORDER BY escalation_level ASC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalations for %s: %w", requestID, err)
	}
	defer rows.Close()

	var out []models.Escalation
	for rows.Next() {
		var esc models.Escalation
		var id string
		if err := rows.Scan(&id, &esc.RequestID, &esc.Checkpoint, &esc.TriggeredAt); err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		if esc.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid escalation id %q: %w", id, err)
		}
		out = append(out, esc)
	}
	return out, rows.Err()
}

// ListCategories returns distinct record categories
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM sla_records ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountOutcomes counts records per status for a category and creation window
func (s *Store) CountOutcomes(ctx context.Context, category string, from, to time.Time) (models.OutcomeCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'met' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'violated' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0)
		FROM sla_records
		WHERE category = ? AND created_at >= ? AND created_at <= ?
	`
	var c models.OutcomeCounts
	err := s.db.QueryRowContext(ctx, query, category, utc(from), utc(to)).Scan(&c.Total, &c.Met, &c.Violated, &c.Active)
	if err != nil {
		return models.OutcomeCounts{}, fmt.Errorf("failed to count outcomes for %s: %w", category, err)
	}
	return c, nil
}

// SaveStatistics replaces the statistics row for a category and period
func (s *Store) SaveStatistics(ctx context.Context, st models.Statistics) error {
	query := `
		INSERT INTO sla_statistics (
			category, period, period_start, period_end, total, met, violated, active, compliance_rate, computed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, period) DO UPDATE SET
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			total = excluded.total,
			met = excluded.met,
			violated = excluded.violated,
			active = excluded.active,
			compliance_rate = excluded.compliance_rate,
			computed_at = excluded.computed_at
	`
	var rate sql.NullFloat64
	if st.ComplianceRate != nil {
		rate = sql.NullFloat64{Float64: *st.ComplianceRate, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		st.Category, st.Period, utc(st.PeriodStart), utc(st.PeriodEnd),
		st.Total, st.Met, st.Violated, st.Active, rate, utc(st.ComputedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save statistics for %s: %w", st.Category, err)
	}
	return nil
}

// ListStatistics returns all statistics rows
func (s *Store) ListStatistics(ctx context.Context) ([]models.Statistics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, period, period_start, period_end, total, met, violated, active, compliance_rate, computed_at
		FROM sla_statistics
		ORDER BY category, period
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list statistics: %w", err)
	}
	defer rows.Close()

	var out []models.Statistics
	for rows.Next() {
		var st models.Statistics
		var rate sql.NullFloat64
		err := rows.Scan(&st.Category, &st.Period, &st.PeriodStart, &st.PeriodEnd,
			&st.Total, &st.Met, &st.Violated, &st.Active, &rate, &st.ComputedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statistics: %w", err)
		}
		if rate.Valid {
			r := rate.Float64
			st.ComplianceRate = &r
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
