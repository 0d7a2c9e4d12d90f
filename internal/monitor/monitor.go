package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"sla-service/internal/definitions"
	"sla-service/internal/logging"
	"sla-service/internal/metrics"
	"sla-service/internal/models"
	"sla-service/internal/store"
)

// Notifier receives escalation and violation notices. Notify must not block.
type Notifier interface {
	Notify(n models.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(models.Notification) {}

// Monitor owns the active set and implements the SLA lifecycle operations
// and the compliance sweep.
type Monitor struct {
	store        store.Store
	registry     *definitions.Registry
	notifier     Notifier
	logger       *logging.Logger
	clock        func() time.Time
	storeTimeout time.Duration
	active       *ActiveSet
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock overrides the wall clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Monitor) { m.clock = clock }
}

// WithStoreTimeout bounds each store call made by the sweeper.
func WithStoreTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.storeTimeout = d }
}

// New constructs a Monitor. A nil notifier discards notices.
func New(st store.Store, registry *definitions.Registry, notifier Notifier, logger *logging.Logger, opts ...Option) *Monitor {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	m := &Monitor{
		store:        st,
		registry:     registry,
		notifier:     notifier,
		logger:       logger,
		clock:        time.Now,
		storeTimeout: 5 * time.Second,
		active:       NewActiveSet(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore rebuilds the active set from the store, including checkpoints that
// already fired. Records that fail to load are skipped and reported.
func (m *Monitor) Restore(ctx context.Context) (int, error) {
	recs, err := m.store.ListActiveRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active records: %w", err)
	}

	var result *multierror.Error
	restored := 0
	for _, rec := range recs {
		escs, err := m.store.ListEscalations(ctx, rec.RequestID)
		if err != nil {
			// the store's uniqueness on (request, checkpoint) still prevents repeats
			result = multierror.Append(result, fmt.Errorf("escalations for %s: %w", rec.RequestID, err))
			escs = nil
		}
		fired := make([]float64, 0, len(escs))
		for _, esc := range escs {
			fired = append(fired, esc.Checkpoint)
		}
		def, _ := m.registry.Lookup(rec.Category)
		if m.active.insert(newEntry(rec, def.Checkpoints, fired)) {
			restored++
		}
	}
	metrics.SetActive(m.active.Len())
	m.logger.Infof("Restored %d active SLA records", restored)
	return restored, result.ErrorOrNil()
}

// Attach creates the SLA record for a new request and starts monitoring it.
// Unknown categories use the general definition.
func (m *Monitor) Attach(ctx context.Context, requestID, category string, createdAt time.Time) (models.Record, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return models.Record{}, ErrInvalidRequest
	}
	log := m.logger.WithRequest(requestID)

	now := m.clock()
	if createdAt.IsZero() {
		createdAt = now
	}

	def, found := m.registry.Lookup(category)
	if !found {
		log.Debugf("No SLA definition for category %q, using %s", category, def.Category)
	}
	if category == "" {
		category = def.Category
	}

	if _, exists := m.active.get(requestID); exists {
		return models.Record{}, fmt.Errorf("attach %s: %w", requestID, ErrDuplicateRecord)
	}

	rec := models.NewRecord(requestID, category, def, createdAt, now)
	if err := m.store.CreateRecord(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateRecord) {
			return models.Record{}, fmt.Errorf("attach %s: %w", requestID, ErrDuplicateRecord)
		}
		log.Errorf("Failed to persist SLA record: %v", err)
		return models.Record{}, &PersistenceError{Op: "attach", RequestID: requestID, Err: err}
	}

	if !m.active.insert(newEntry(rec, def.Checkpoints, nil)) {
		// lost a race with a concurrent attach that also passed the store
		return models.Record{}, fmt.Errorf("attach %s: %w", requestID, ErrDuplicateRecord)
	}

	metrics.Attached(category)
	metrics.SetActive(m.active.Len())
	log.Infof("SLA attached: category=%s target=%s priority=%s", category, rec.TargetAt.Format(time.RFC3339), rec.Priority)
	return rec, nil
}

// Complete classifies a finished request as met (completedAt <= target) or
// violated and stops monitoring it. Requests without an active SLA are ignored.
func (m *Monitor) Complete(ctx context.Context, requestID string, completedAt time.Time) error {
	log := m.logger.WithRequest(requestID)

	e, ok := m.active.get(requestID)
	if !ok {
		log.Debug("Complete ignored: no active SLA")
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resolved {
		log.Debug("Complete ignored: SLA already resolved")
		return nil
	}

	now := m.clock()
	if completedAt.IsZero() {
		completedAt = now
	}
	status := models.StatusMet
	if completedAt.After(e.record.TargetAt) {
		status = models.StatusViolated
	}

	res := store.Resolution{Status: status, CompletedAt: &completedAt, UpdatedAt: now}
	err := m.store.ResolveRecord(ctx, requestID, res)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrAlreadyResolved):
		log.Info("Complete ignored: SLA resolved elsewhere")
		m.finish(e)
		return nil
	default:
		log.Errorf("Failed to persist completion: %v", err)
		return &PersistenceError{Op: "complete", RequestID: requestID, Err: err}
	}

	e.record.Status = status
	e.record.CompletedAt = &completedAt
	e.record.UpdatedAt = now
	m.finish(e)

	metrics.Resolved(e.record.Category, string(status))
	log.Infof("SLA completed: status=%s", status)
	return nil
}

// finish marks e resolved and drops it from the active set. Caller holds e.mu.
func (m *Monitor) finish(e *entry) {
	e.resolved = true
	m.active.remove(e.requestID, e)
	metrics.SetActive(m.active.Len())
}

// GetStatus returns the record for a request, or nil when none exists.
func (m *Monitor) GetStatus(ctx context.Context, requestID string) (*models.Record, error) {
	if e, ok := m.active.get(requestID); ok {
		e.mu.Lock()
		rec, resolved := e.record, e.resolved
		e.mu.Unlock()
		if !resolved {
			return &rec, nil
		}
	}

	rec, err := m.store.GetRecord(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get", RequestID: requestID, Err: err}
	}
	return &rec, nil
}

// ListActive returns a snapshot of active records ordered by target date.
func (m *Monitor) ListActive() []models.Record {
	entries := m.sortedEntries()
	out := make([]models.Record, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.resolved {
			out = append(out, e.record)
		}
		e.mu.Unlock()
	}
	return out
}

// ActiveProgress returns active records with their progress at now.
func (m *Monitor) ActiveProgress(now time.Time) []models.ActiveStatus {
	entries := m.sortedEntries()
	out := make([]models.ActiveStatus, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.resolved {
			ratio := progress(e.record, now)
			out = append(out, models.ActiveStatus{
				Record:     e.record,
				Progress:   ratio,
				AlertLevel: models.AlertLevelFor(ratio),
				Escalated:  e.firedCheckpoints(),
			})
		}
		e.mu.Unlock()
	}
	return out
}

// Now returns the monitor's clock reading.
func (m *Monitor) Now() time.Time {
	return m.clock()
}

// sortedEntries orders by target date then request id.
func (m *Monitor) sortedEntries() []*entry {
	entries := m.active.snapshot()
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.targetAt.Equal(b.targetAt) {
			return a.targetAt.Before(b.targetAt)
		}
		return a.requestID < b.requestID
	})
	return entries
}

// progress is elapsed/total; a non-positive total counts as already breached.
func progress(rec models.Record, now time.Time) float64 {
	total := rec.TargetAt.Sub(rec.CreatedAt)
	if total <= 0 {
		return 1
	}
	return float64(now.Sub(rec.CreatedAt)) / float64(total)
}
