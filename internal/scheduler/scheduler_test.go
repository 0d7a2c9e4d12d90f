package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-service/internal/logging"
)

var t0 = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func TestManual_RunsDueJobsInOrder(t *testing.T) {
	m := NewManual(t0)

	var mu sync.Mutex
	var runs []string
	record := func(name string) Job {
		return func(_ context.Context, now time.Time) {
			mu.Lock()
			defer mu.Unlock()
			runs = append(runs, name+"@"+now.Sub(t0).String())
		}
	}
	m.Every("sweep", 5*time.Minute, record("sweep"))
	m.Every("stats", 15*time.Minute, record("stats"))
	require.NoError(t, m.Start())

	m.Advance(16 * time.Minute)

	assert.Equal(t, []string{"sweep@5m0s", "sweep@10m0s", "sweep@15m0s", "stats@15m0s"}, runs)
	assert.Equal(t, t0.Add(16*time.Minute), m.Now())
}

func TestManual_NotStarted(t *testing.T) {
	m := NewManual(t0)
	var count int
	m.Every("sweep", time.Minute, func(context.Context, time.Time) { count++ })

	m.Advance(10 * time.Minute)
	assert.Equal(t, 0, count)
	assert.Equal(t, t0.Add(10*time.Minute), m.Now())
}

func TestManual_JobSeesDueTime(t *testing.T) {
	m := NewManual(t0)
	var seen []time.Time
	m.Every("sweep", time.Hour, func(_ context.Context, now time.Time) {
		seen = append(seen, now)
		assert.Equal(t, now, m.Now())
	})
	require.NoError(t, m.Start())

	m.Advance(150 * time.Minute)
	assert.Equal(t, []time.Time{t0.Add(time.Hour), t0.Add(2 * time.Hour)}, seen)
}

func TestTicker_RunsAndStops(t *testing.T) {
	tk := NewTicker(logging.NewNop())
	var count atomic.Int32
	tk.Every("sweep", 10*time.Millisecond, func(context.Context, time.Time) { count.Add(1) })

	require.NoError(t, tk.Start())
	assert.Error(t, tk.Start(), "second start must fail")

	assert.Eventually(t, func() bool { return count.Load() >= 3 }, time.Second, 5*time.Millisecond)
	tk.Stop()

	after := count.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, count.Load(), "no runs after Stop")
}

func TestTicker_StopWaitsForInFlightJob(t *testing.T) {
	tk := NewTicker(logging.NewNop())
	started := make(chan struct{})
	var finished atomic.Bool
	var once sync.Once
	tk.Every("slow", time.Hour, func(ctx context.Context, _ time.Time) {
		once.Do(func() { close(started) })
		time.Sleep(50 * time.Millisecond)
		assert.NoError(t, ctx.Err(), "job context is not cancelled by Stop")
		finished.Store(true)
	})

	require.NoError(t, tk.Start())
	<-started
	tk.Stop()
	assert.True(t, finished.Load())
}

func TestTicker_Validation(t *testing.T) {
	tk := NewTicker(logging.NewNop())
	assert.Error(t, tk.Start(), "no jobs")

	tk.Every("bad", 0, func(context.Context, time.Time) {})
	assert.Error(t, tk.Start())
}

type fakeLocker struct {
	acquired bool
	released atomic.Int32
}

func (f *fakeLocker) TryLock(context.Context, string) (func(), bool, error) {
	if !f.acquired {
		return nil, false, nil
	}
	return func() { f.released.Add(1) }, true, nil
}

func TestTicker_Locker(t *testing.T) {
	t.Run("held elsewhere", func(t *testing.T) {
		tk := NewTicker(logging.NewNop())
		tk.SetLocker(&fakeLocker{acquired: false})
		var count atomic.Int32
		tk.Every("sweep", 5*time.Millisecond, func(context.Context, time.Time) { count.Add(1) })
		require.NoError(t, tk.Start())
		time.Sleep(30 * time.Millisecond)
		tk.Stop()
		assert.Equal(t, int32(0), count.Load())
	})

	t.Run("acquired", func(t *testing.T) {
		tk := NewTicker(logging.NewNop())
		l := &fakeLocker{acquired: true}
		tk.SetLocker(l)
		var count atomic.Int32
		tk.Every("sweep", 5*time.Millisecond, func(context.Context, time.Time) { count.Add(1) })
		require.NoError(t, tk.Start())
		assert.Eventually(t, func() bool { return count.Load() >= 1 }, time.Second, 5*time.Millisecond)
		tk.Stop()
		assert.Equal(t, count.Load(), l.released.Load())
	})
}
