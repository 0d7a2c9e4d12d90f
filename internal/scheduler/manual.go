package scheduler

import (
	"context"
	"sync"
	"time"
)

// Manual is a virtual-time scheduler. Jobs run only when the clock is
// advanced, in due order, each seeing its due time as now.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	entries []*entry
	started bool
}

var _ Scheduler = (*Manual)(nil)

// NewManual creates a manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every registers job; its first run is one interval after the current virtual time.
func (m *Manual) Every(name string, interval time.Duration, job Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, &entry{name: name, interval: interval, job: job, next: m.now.Add(interval)})
}

func (m *Manual) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.AdvanceTo(m.Now().Add(d))
}

// AdvanceTo moves the clock to target, running every job that falls due on
// the way. Jobs run outside the lock so they may call Now.
func (m *Manual) AdvanceTo(target time.Time) {
	for {
		m.mu.Lock()
		var due *entry
		if m.started {
			if e := nextDue(m.entries); e != nil && !e.next.After(target) {
				due = e
			}
		}
		if due == nil {
			if target.After(m.now) {
				m.now = target
			}
			m.mu.Unlock()
			return
		}
		if due.next.After(m.now) {
			m.now = due.next
		}
		at := m.now
		due.next = due.next.Add(due.interval)
		m.mu.Unlock()

		due.job(context.Background(), at)
	}
}
