package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"sla-service/internal/metrics"
	"sla-service/internal/models"
	"sla-service/internal/store"
)

// SweepReport summarizes one compliance sweep.
type SweepReport struct {
	Evaluated   int `json:"evaluated"`
	Escalations int `json:"escalations"`
	Violations  int `json:"violations"`
	Warning     int `json:"warning"`
	Critical    int `json:"critical"`
	Failures    int `json:"failures"`
}

// Sweep evaluates every active entry at now. Entries are processed one at a
// time and a failure on one entry never stops the others.
func (m *Monitor) Sweep(ctx context.Context, now time.Time) SweepReport {
	start := time.Now()
	var report SweepReport

	for _, e := range m.sortedEntries() {
		m.sweepEntry(ctx, e, now, &report)
	}

	metrics.ObserveSweep(time.Since(start), report.Warning, report.Critical)
	metrics.SetActive(m.active.Len())
	m.logger.Infof("Sweep done: evaluated=%d escalations=%d violations=%d warning=%d critical=%d failures=%d",
		report.Evaluated, report.Escalations, report.Violations, report.Warning, report.Critical, report.Failures)
	return report
}

func (m *Monitor) sweepEntry(ctx context.Context, e *entry, now time.Time, report *SweepReport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resolved {
		return
	}
	report.Evaluated++

	rec := e.record
	total := rec.TargetAt.Sub(rec.CreatedAt)
	if total <= 0 || now.After(rec.TargetAt) {
		m.violate(ctx, e, now, report)
		return
	}

	elapsed := now.Sub(rec.CreatedAt)
	for _, cp := range e.checkpoints {
		if e.escalated[cp] {
			continue
		}
		if elapsed < models.Hours(cp) {
			break
		}
		fired, err := m.escalate(ctx, e, cp, now)
		if err != nil {
			// later checkpoints wait for this one so they stay in order
			report.Failures++
			metrics.Failure("escalation")
			m.logger.WithRequest(rec.RequestID).Errorf("Failed to persist escalation %gh: %v", cp, err)
			break
		}
		if fired {
			report.Escalations++
		}
	}

	level := models.AlertLevelFor(progress(rec, now))
	switch level {
	case models.AlertWarning:
		report.Warning++
	case models.AlertCritical:
		report.Critical++
	}
	if level != models.AlertNone {
		m.logger.WithRequest(rec.RequestID).Debugf("SLA at %s level (%.0f%% elapsed)", level, progress(rec, now)*100)
	}
}

// escalate records and announces checkpoint cp. A checkpoint the store
// already holds is marked fired without a second notice. Caller holds e.mu.
func (m *Monitor) escalate(ctx context.Context, e *entry, cp float64, now time.Time) (bool, error) {
	esc := models.Escalation{
		ID:          uuid.New(),
		RequestID:   e.record.RequestID,
		Checkpoint:  cp,
		TriggeredAt: now,
	}

	sctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	err := m.store.CreateEscalation(sctx, esc)
	if errors.Is(err, store.ErrDuplicateEscalation) {
		e.escalated[cp] = true
		return false, nil
	}
	if err != nil {
		return false, err
	}

	e.escalated[cp] = true
	m.notifier.Notify(models.NewEscalationNotification(e.record, cp, now))
	metrics.Escalated(e.record.Category)
	m.logger.WithRequest(e.record.RequestID).Warnf("SLA escalation fired at %gh (category=%s priority=%s)", cp, e.record.Category, e.record.Priority)
	return true, nil
}

// violate marks the record violated. On a store failure the entry stays
// active and is retried next sweep. Caller holds e.mu.
func (m *Monitor) violate(ctx context.Context, e *entry, now time.Time, report *SweepReport) {
	log := m.logger.WithRequest(e.record.RequestID)
	violatedAt := now
	res := store.Resolution{Status: models.StatusViolated, ViolatedAt: &violatedAt, UpdatedAt: now}

	sctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	err := m.store.ResolveRecord(sctx, e.record.RequestID, res)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrAlreadyResolved):
		log.Info("Violation skipped: SLA resolved elsewhere")
		m.finish(e)
		return
	default:
		report.Failures++
		metrics.Failure("violation")
		log.Errorf("Failed to persist violation: %v", err)
		return
	}

	e.record.Status = models.StatusViolated
	e.record.ViolatedAt = &violatedAt
	e.record.UpdatedAt = now
	m.finish(e)

	report.Violations++
	m.notifier.Notify(models.NewViolationNotification(e.record, now))
	metrics.Resolved(e.record.Category, string(models.StatusViolated))
	log.Warnf("SLA violated: category=%s priority=%s target=%s", e.record.Category, e.record.Priority, e.record.TargetAt.Format(time.RFC3339))
}
