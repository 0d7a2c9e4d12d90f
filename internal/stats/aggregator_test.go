package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-service/internal/definitions"
	"sla-service/internal/logging"
	"sla-service/internal/models"
	"sla-service/internal/store"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

type failingCounts struct {
	store.Store
	category string
}

func (f failingCounts) CountOutcomes(ctx context.Context, category string, from, to time.Time) (models.OutcomeCounts, error) {
	if category == f.category {
		return models.OutcomeCounts{}, errors.New("count timeout")
	}
	return f.Store.CountOutcomes(ctx, category, from, to)
}

func seed(t *testing.T, st store.Store, id, category string, createdAt time.Time, status models.Status) {
	t.Helper()
	def := models.Definition{Category: category, TargetHours: 2, Priority: models.PriorityHigh}
	require.NoError(t, st.CreateRecord(context.Background(), models.NewRecord(id, category, def, createdAt, createdAt)))
	if status != models.StatusActive {
		done := createdAt.Add(time.Hour)
		require.NoError(t, st.ResolveRecord(context.Background(), id, store.Resolution{Status: status, CompletedAt: &done, UpdatedAt: done}))
	}
}

func findCategory(t *testing.T, all []models.Statistics, category string) models.Statistics {
	t.Helper()
	for _, st := range all {
		if st.Category == category {
			return st
		}
	}
	t.Fatalf("no statistics for %s", category)
	return models.Statistics{}
}

func TestPeriodLabel(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   string
	}{
		{30 * 24 * time.Hour, "30d"},
		{24 * time.Hour, "1d"},
		{12 * time.Hour, "12h"},
		{90 * time.Minute, "1h30m0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PeriodLabel(tt.window))
	}
}

func TestComplianceRate(t *testing.T) {
	assert.Nil(t, ComplianceRate(models.OutcomeCounts{}))

	rate := ComplianceRate(models.OutcomeCounts{Total: 4, Met: 3, Violated: 1})
	require.NotNil(t, rate)
	assert.InDelta(t, 75.0, *rate, 1e-9)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	window := 30 * 24 * time.Hour

	seed(t, st, "r1", "password_reset", now.Add(-48*time.Hour), models.StatusMet)
	seed(t, st, "r2", "password_reset", now.Add(-24*time.Hour), models.StatusMet)
	seed(t, st, "r3", "password_reset", now.Add(-12*time.Hour), models.StatusViolated)
	seed(t, st, "r4", "password_reset", now.Add(-time.Hour), models.StatusActive)
	// outside the window
	seed(t, st, "old", "password_reset", now.Add(-window-time.Hour), models.StatusViolated)
	// category that is not configured
	seed(t, st, "x1", "legacy", now.Add(-time.Hour), models.StatusMet)

	agg := New(st, definitions.Default(), logging.NewNop(), window)
	out, err := agg.Run(ctx, now)
	require.NoError(t, err)

	pr := findCategory(t, out, "password_reset")
	assert.Equal(t, "30d", pr.Period)
	assert.Equal(t, 4, pr.Total)
	assert.Equal(t, 2, pr.Met)
	assert.Equal(t, 1, pr.Violated)
	assert.Equal(t, 1, pr.Active)
	require.NotNil(t, pr.ComplianceRate)
	assert.InDelta(t, 50.0, *pr.ComplianceRate, 1e-9)
	assert.Equal(t, now.Add(-window), pr.PeriodStart)

	legacy := findCategory(t, out, "legacy")
	assert.Equal(t, 1, legacy.Total)

	incident := findCategory(t, out, "incident")
	assert.Equal(t, 0, incident.Total)
	assert.Nil(t, incident.ComplianceRate)

	saved, err := st.ListStatistics(ctx)
	require.NoError(t, err)
	assert.Len(t, saved, len(out))
}

func TestRunReplacesPreviousEntry(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	agg := New(st, definitions.Default(), logging.NewNop(), 24*time.Hour)

	_, err := agg.Run(ctx, now)
	require.NoError(t, err)
	seed(t, st, "r1", "incident", now.Add(-time.Hour), models.StatusMet)
	_, err = agg.Run(ctx, now)
	require.NoError(t, err)

	saved, err := st.ListStatistics(ctx)
	require.NoError(t, err)
	incident := findCategory(t, saved, "incident")
	assert.Equal(t, 1, incident.Total)
	assert.Len(t, saved, len(definitions.Default().Categories()))
}

func TestRunIsolatesCategoryFailures(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	seed(t, mem, "r1", "incident", now.Add(-time.Hour), models.StatusMet)
	st := failingCounts{Store: mem, category: "general"}

	agg := New(st, definitions.Default(), logging.NewNop(), 24*time.Hour)
	out, err := agg.Run(ctx, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "general")

	assert.Len(t, out, len(definitions.Default().Categories())-1)
	incident := findCategory(t, out, "incident")
	assert.Equal(t, 1, incident.Met)
}
