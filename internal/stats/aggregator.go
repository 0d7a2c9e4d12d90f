package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"

	"sla-service/internal/definitions"
	"sla-service/internal/logging"
	"sla-service/internal/metrics"
	"sla-service/internal/models"
	"sla-service/internal/store"
)

// Aggregator recomputes rolling per-category compliance statistics.
type Aggregator struct {
	store    store.Store
	registry *definitions.Registry
	logger   *logging.Logger
	window   time.Duration
	period   string
}

// New creates an Aggregator over a trailing window.
func New(st store.Store, registry *definitions.Registry, logger *logging.Logger, window time.Duration) *Aggregator {
	return &Aggregator{
		store:    st,
		registry: registry,
		logger:   logger,
		window:   window,
		period:   PeriodLabel(window),
	}
}

// PeriodLabel names a window the way it is stored, e.g. 30d or 12h.
func PeriodLabel(window time.Duration) string {
	day := 24 * time.Hour
	switch {
	case window >= day && window%day == 0:
		return fmt.Sprintf("%dd", window/day)
	case window >= time.Hour && window%time.Hour == 0:
		return fmt.Sprintf("%dh", window/time.Hour)
	default:
		return window.String()
	}
}

// ComplianceRate is met/total as a percentage, nil without records.
func ComplianceRate(c models.OutcomeCounts) *float64 {
	if c.Total <= 0 {
		return nil
	}
	rate := float64(c.Met) / float64(c.Total) * 100
	return &rate
}

// Run computes and saves statistics for every known category at now. A
// failing category is reported in the returned error and the rest continue.
func (a *Aggregator) Run(ctx context.Context, now time.Time) ([]models.Statistics, error) {
	categories, err := a.categories(ctx)
	if err != nil {
		return nil, err
	}

	from := now.Add(-a.window)
	var result *multierror.Error
	out := make([]models.Statistics, 0, len(categories))
	for _, category := range categories {
		st, err := a.compute(ctx, category, from, now)
		if err != nil {
			metrics.Failure("statistics")
			a.logger.Errorf("Failed to compute statistics for %s: %v", category, err)
			result = multierror.Append(result, fmt.Errorf("category %s: %w", category, err))
			continue
		}
		metrics.SetComplianceRate(category, st.ComplianceRate)
		out = append(out, st)
	}

	a.logger.Infof("Statistics computed for %d/%d categories (period=%s)", len(out), len(categories), a.period)
	return out, result.ErrorOrNil()
}

func (a *Aggregator) compute(ctx context.Context, category string, from, to time.Time) (models.Statistics, error) {
	counts, err := a.store.CountOutcomes(ctx, category, from, to)
	if err != nil {
		return models.Statistics{}, fmt.Errorf("failed to count outcomes: %w", err)
	}

	st := models.Statistics{
		Category:       category,
		Period:         a.period,
		PeriodStart:    from,
		PeriodEnd:      to,
		Total:          counts.Total,
		Met:            counts.Met,
		Violated:       counts.Violated,
		Active:         counts.Active,
		ComplianceRate: ComplianceRate(counts),
		ComputedAt:     to,
	}
	if err := a.store.SaveStatistics(ctx, st); err != nil {
		return models.Statistics{}, fmt.Errorf("failed to save statistics: %w", err)
	}
	return st, nil
}

// categories is the union of configured and stored categories, sorted.
func (a *Aggregator) categories(ctx context.Context) ([]string, error) {
	stored, err := a.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, c := range append(a.registry.Categories(), stored...) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}
