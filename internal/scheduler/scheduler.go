package scheduler

import (
	"context"
	"time"
)

// Job is a unit of periodic work. now is the scheduler's notion of the
// current time, which is virtual under Manual.
type Job func(ctx context.Context, now time.Time)

// Scheduler runs registered jobs on fixed intervals.
type Scheduler interface {
	// Every registers job to run every interval. Must be called before Start.
	Every(name string, interval time.Duration, job Job)
	Start() error
	// Stop halts scheduling and waits for an in-flight job to finish.
	Stop()
}

// Locker provides mutual exclusion across service instances.
type Locker interface {
	TryLock(ctx context.Context, name string) (release func(), acquired bool, err error)
}

type entry struct {
	name     string
	interval time.Duration
	job      Job
	next     time.Time
}

// nextDue returns the entry with the earliest due time, first registered on ties.
func nextDue(entries []*entry) *entry {
	var due *entry
	for _, e := range entries {
		if due == nil || e.next.Before(due.next) {
			due = e
		}
	}
	return due
}
