package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sla-service/internal/logging"
)

// Ticker runs all jobs on a single worker goroutine, so jobs never overlap.
// Each job runs once at Start and then every interval.
type Ticker struct {
	logger  *logging.Logger
	locker  Locker
	entries []*entry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

var _ Scheduler = (*Ticker)(nil)

// NewTicker creates a wall-clock scheduler.
func NewTicker(logger *logging.Logger) *Ticker {
	return &Ticker{logger: logger}
}

// SetLocker makes every job run only while holding the named lock (optional).
func (t *Ticker) SetLocker(l Locker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locker = l
}

func (t *Ticker) Every(name string, interval time.Duration, job Job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, &entry{name: name, interval: interval, job: job})
}

func (t *Ticker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("scheduler already running")
	}
	if len(t.entries) == 0 {
		return fmt.Errorf("no jobs registered")
	}
	for _, e := range t.entries {
		if e.interval <= 0 {
			return fmt.Errorf("job %s: interval must be positive", e.name)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.running = true

	now := time.Now()
	for _, e := range t.entries {
		e.next = now
	}

	t.wg.Add(1)
	go t.loop(ctx)

	t.logger.Infof("Scheduler started with %d jobs", len(t.entries))
	return nil
}

func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.cancel()
	t.running = false
	t.mu.Unlock()

	t.logger.Info("Stopping scheduler...")
	t.wg.Wait()
	t.logger.Info("Scheduler stopped")
}

func (t *Ticker) loop(ctx context.Context) {
	defer t.wg.Done()

	for {
		due := nextDue(t.entries)
		timer := time.NewTimer(time.Until(due.next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		now := time.Now()
		due.next = due.next.Add(due.interval)
		if due.next.Before(now) {
			// skip ticks missed while a long job was running
			due.next = now.Add(due.interval)
		}
		t.run(due, now)
	}
}

// run executes one job. The job context is not tied to Stop so an in-flight
// job always completes.
func (t *Ticker) run(e *entry, now time.Time) {
	ctx := context.Background()

	t.mu.Lock()
	locker := t.locker
	t.mu.Unlock()

	if locker != nil {
		release, ok, err := locker.TryLock(ctx, "sla-scheduler:"+e.name)
		if err != nil {
			t.logger.Errorf("Job %s skipped, lock failed: %v", e.name, err)
			return
		}
		if !ok {
			t.logger.Debugf("Job %s skipped, lock held by another instance", e.name)
			return
		}
		defer release()
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Errorf("Job %s panicked: %v", e.name, r)
		}
	}()

	start := time.Now()
	e.job(ctx, now)
	t.logger.Debugf("Job %s finished in %v", e.name, time.Since(start))
}
