package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"sla-service/internal/models"
)

type escalationKey struct {
	requestID  string
	checkpoint float64
}

type statisticsKey struct {
	category string
	period   string
}

// Memory is an in-process Store used by tests and ephemeral runs.
type Memory struct {
	mu          sync.RWMutex
	records     map[string]models.Record
	escalations map[escalationKey]models.Escalation
	statistics  map[statisticsKey]models.Statistics
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records:     make(map[string]models.Record),
		escalations: make(map[escalationKey]models.Escalation),
		statistics:  make(map[statisticsKey]models.Statistics),
	}
}

func (m *Memory) CreateRecord(_ context.Context, rec models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.RequestID]; exists {
		return ErrDuplicateRecord
	}
	m.records[rec.RequestID] = rec
	return nil
}

func (m *Memory) GetRecord(_ context.Context, requestID string) (models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[requestID]
	if !ok {
		return models.Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) ListActiveRecords(_ context.Context) ([]models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Record
	for _, rec := range m.records {
		if rec.Status == models.StatusActive {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetAt.Before(out[j].TargetAt) })
	return out, nil
}

func (m *Memory) ResolveRecord(_ context.Context, requestID string, res Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[requestID]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != models.StatusActive {
		return ErrAlreadyResolved
	}
	rec.Status = res.Status
	rec.CompletedAt = res.CompletedAt
	rec.ViolatedAt = res.ViolatedAt
	rec.UpdatedAt = res.UpdatedAt
	m.records[requestID] = rec
	return nil
}

func (m *Memory) CreateEscalation(_ context.Context, esc models.Escalation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := escalationKey{esc.RequestID, esc.Checkpoint}
	if _, exists := m.escalations[key]; exists {
		return ErrDuplicateEscalation
	}
	m.escalations[key] = esc
	return nil
}

func (m *Memory) ListEscalations(_ context.Context, requestID string) ([]models.Escalation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Escalation
	for key, esc := range m.escalations {
		if key.requestID == requestID {
			out = append(out, esc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Checkpoint < out[j].Checkpoint })
	return out, nil
}

func (m *Memory) ListCategories(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, rec := range m.records {
		if !seen[rec.Category] {
			seen[rec.Category] = true
			out = append(out, rec.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) CountOutcomes(_ context.Context, category string, from, to time.Time) (models.OutcomeCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var c models.OutcomeCounts
	for _, rec := range m.records {
		if rec.Category != category || rec.CreatedAt.Before(from) || rec.CreatedAt.After(to) {
			continue
		}
		c.Total++
		switch rec.Status {
		case models.StatusMet:
			c.Met++
		case models.StatusViolated:
			c.Violated++
		case models.StatusActive:
			c.Active++
		}
	}
	return c, nil
}

func (m *Memory) SaveStatistics(_ context.Context, st models.Statistics) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statistics[statisticsKey{st.Category, st.Period}] = st
	return nil
}

func (m *Memory) ListStatistics(_ context.Context) ([]models.Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Statistics, 0, len(m.statistics))
	for _, st := range m.statistics {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Period < out[j].Period
	})
	return out, nil
}

func (m *Memory) Close() error { return nil }
