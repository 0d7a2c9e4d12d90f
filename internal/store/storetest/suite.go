// Package storetest holds behaviour tests shared by every store.Store implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-service/internal/models"
	"sla-service/internal/store"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func record(id, category string, created time.Time) models.Record {
	def := models.Definition{Category: category, TargetHours: 2, Priority: models.PriorityHigh, Checkpoints: []float64{1, 1.5}}
	return models.NewRecord(id, category, def, created, created)
}

// Run exercises s against the store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("Duplicate", func(t *testing.T) { testDuplicate(t, newStore(t)) })
	t.Run("Resolve", func(t *testing.T) { testResolve(t, newStore(t)) })
	t.Run("ListActive", func(t *testing.T) { testListActive(t, newStore(t)) })
	t.Run("Escalations", func(t *testing.T) { testEscalations(t, newStore(t)) })
	t.Run("CategoriesAndCounts", func(t *testing.T) { testCategoriesAndCounts(t, newStore(t)) })
	t.Run("Statistics", func(t *testing.T) { testStatistics(t, newStore(t)) })
}

func testCreateAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	rec := record("REQ-1", "password_reset", base)
	require.NoError(t, s.CreateRecord(ctx, rec))

	got, err := s.GetRecord(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, "password_reset", got.Category)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, 2.0, got.TargetHours)
	assert.True(t, got.CreatedAt.Equal(base))
	assert.True(t, got.TargetAt.Equal(base.Add(2*time.Hour)))
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.ViolatedAt)

	_, err = s.GetRecord(ctx, "REQ-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateRecord(ctx, record("REQ-1", "password_reset", base)))

	err := s.CreateRecord(ctx, record("REQ-1", "incident", base.Add(time.Hour)))
	assert.ErrorIs(t, err, store.ErrDuplicateRecord)

	got, err := s.GetRecord(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, "password_reset", got.Category, "first record must be untouched")
}

func testResolve(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateRecord(ctx, record("REQ-1", "password_reset", base)))

	completed := base.Add(90 * time.Minute)
	err := s.ResolveRecord(ctx, "REQ-1", store.Resolution{
		Status:      models.StatusMet,
		CompletedAt: &completed,
		UpdatedAt:   completed,
	})
	require.NoError(t, err)

	got, err := s.GetRecord(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMet, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(completed))

	violated := base.Add(3 * time.Hour)
	err = s.ResolveRecord(ctx, "REQ-1", store.Resolution{Status: models.StatusViolated, ViolatedAt: &violated, UpdatedAt: violated})
	assert.ErrorIs(t, err, store.ErrAlreadyResolved)

	got, err = s.GetRecord(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMet, got.Status)

	err = s.ResolveRecord(ctx, "REQ-missing", store.Resolution{Status: models.StatusMet, UpdatedAt: base})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListActive(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateRecord(ctx, record("REQ-late", "password_reset", base.Add(time.Hour))))
	require.NoError(t, s.CreateRecord(ctx, record("REQ-early", "password_reset", base)))
	require.NoError(t, s.CreateRecord(ctx, record("REQ-done", "password_reset", base)))

	violated := base.Add(3 * time.Hour)
	require.NoError(t, s.ResolveRecord(ctx, "REQ-done", store.Resolution{Status: models.StatusViolated, ViolatedAt: &violated, UpdatedAt: violated}))

	active, err := s.ListActiveRecords(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "REQ-early", active[0].RequestID)
	assert.Equal(t, "REQ-late", active[1].RequestID)
}

func testEscalations(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateRecord(ctx, record("REQ-1", "password_reset", base)))

	second := models.Escalation{ID: uuid.New(), RequestID: "REQ-1", Checkpoint: 1.5, TriggeredAt: base.Add(95 * time.Minute)}
	first := models.Escalation{ID: uuid.New(), RequestID: "REQ-1", Checkpoint: 1, TriggeredAt: base.Add(65 * time.Minute)}
	require.NoError(t, s.CreateEscalation(ctx, second))
	require.NoError(t, s.CreateEscalation(ctx, first))

	dup := models.Escalation{ID: uuid.New(), RequestID: "REQ-1", Checkpoint: 1, TriggeredAt: base.Add(70 * time.Minute)}
	assert.ErrorIs(t, s.CreateEscalation(ctx, dup), store.ErrDuplicateEscalation)

	list, err := s.ListEscalations(ctx, "REQ-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1.0, list[0].Checkpoint)
	assert.Equal(t, 1.5, list[1].Checkpoint)
	assert.Equal(t, first.ID, list[0].ID)

	none, err := s.ListEscalations(ctx, "REQ-other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testCategoriesAndCounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateRecord(ctx, record("A-1", "incident", base)))
	require.NoError(t, s.CreateRecord(ctx, record("A-2", "incident", base.Add(time.Hour))))
	require.NoError(t, s.CreateRecord(ctx, record("A-3", "incident", base.Add(2*time.Hour))))
	require.NoError(t, s.CreateRecord(ctx, record("A-old", "incident", base.Add(-48*time.Hour))))
	require.NoError(t, s.CreateRecord(ctx, record("B-1", "access_request", base)))

	done := base.Add(time.Hour)
	require.NoError(t, s.ResolveRecord(ctx, "A-1", store.Resolution{Status: models.StatusMet, CompletedAt: &done, UpdatedAt: done}))
	require.NoError(t, s.ResolveRecord(ctx, "A-2", store.Resolution{Status: models.StatusViolated, ViolatedAt: &done, UpdatedAt: done}))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"access_request", "incident"}, cats)

	counts, err := s.CountOutcomes(ctx, "incident", base.Add(-24*time.Hour), base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCounts{Total: 3, Met: 1, Violated: 1, Active: 1}, counts)

	empty, err := s.CountOutcomes(ctx, "hardware_request", base.Add(-24*time.Hour), base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCounts{}, empty)
}

func testStatistics(t *testing.T, s store.Store) {
	ctx := context.Background()
	rate := 50.0
	first := models.Statistics{
		Category: "incident", Period: "30d",
		PeriodStart: base.Add(-720 * time.Hour), PeriodEnd: base,
		Total: 2, Met: 1, Violated: 1, ComplianceRate: &rate, ComputedAt: base,
	}
	require.NoError(t, s.SaveStatistics(ctx, first))

	replaced := first
	replacedRate := 75.0
	replaced.Total, replaced.Met, replaced.Violated = 4, 3, 1
	replaced.ComplianceRate = &replacedRate
	replaced.ComputedAt = base.Add(time.Hour)
	require.NoError(t, s.SaveStatistics(ctx, replaced))

	require.NoError(t, s.SaveStatistics(ctx, models.Statistics{
		Category: "access_request", Period: "30d",
		PeriodStart: base.Add(-720 * time.Hour), PeriodEnd: base, ComputedAt: base,
	}))

	list, err := s.ListStatistics(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "access_request", list[0].Category)
	assert.Nil(t, list[0].ComplianceRate)
	assert.Equal(t, 0, list[0].Total)

	assert.Equal(t, "incident", list[1].Category)
	assert.Equal(t, 4, list[1].Total)
	require.NotNil(t, list[1].ComplianceRate)
	assert.InDelta(t, 75.0, *list[1].ComplianceRate, 1e-9)
}
