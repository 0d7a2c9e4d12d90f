package db

import (
	"context"
	"fmt"

	"sla-service/internal/models"
)

// SaveStatistics inserts or replaces the row for (category, period).
func (d *DB) SaveStatistics(ctx context.Context, st models.Statistics) error {
	query := `
	INSERT INTO sla_statistics (
		category, period, period_start, period_end, total, met, violated, active, compliance_rate, computed_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (category, period) DO UPDATE SET
		period_start = EXCLUDED.period_start,
		period_end = EXCLUDED.period_end,
		total = EXCLUDED.total,
		met = EXCLUDED.met,
		violated = EXCLUDED.violated,
		active = EXCLUDED.active,
		compliance_rate = EXCLUDED.compliance_rate,
		computed_at = EXCLUDED.computed_at`

	_, err := d.Pool.Exec(ctx, query,
		st.Category,
		st.Period,
		st.PeriodStart,
		st.PeriodEnd,
		st.Total,
		st.Met,
		st.Violated,
		st.Active,
		st.ComplianceRate,
		st.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save statistics for %s: %w", st.Category, err)
	}
	return nil
}

// ListStatistics returns every statistics row.
func (d *DB) ListStatistics(ctx context.Context) ([]models.Statistics, error) {
	query := `
	SELECT category, period, period_start, period_end, total, met, violated, active, compliance_rate, computed_at
	FROM sla_statistics
	ORDER BY category, period`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list statistics: %w", err)
	}
	defer rows.Close()

	var list []models.Statistics
	for rows.Next() {
		var st models.Statistics
		err := rows.Scan(
			&st.Category,
			&st.Period,
			&st.PeriodStart,
			&st.PeriodEnd,
			&st.Total,
			&st.Met,
			&st.Violated,
			&st.Active,
			&st.ComplianceRate,
			&st.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statistics: %w", err)
		}
		list = append(list, st)
	}
	return list, rows.Err()
}
