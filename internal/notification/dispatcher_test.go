package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-service/internal/logging"
	"sla-service/internal/models"
)

type memorySink struct {
	name string
	err  error
	mu   sync.Mutex
	got  []models.Notification
}

func (s *memorySink) Name() string { return s.name }

func (s *memorySink) Send(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

type blockingSink struct{}

func (blockingSink) Name() string { return "slow" }

func (blockingSink) Send(ctx context.Context, _ models.Notification) error {
	<-ctx.Done()
	return ctx.Err()
}

func violation(id string) models.Notification {
	rec := models.Record{RequestID: id, Category: "incident", Priority: models.PriorityCritical}
	return models.NewViolationNotification(rec, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestDispatcher_FansOutToAllSinks(t *testing.T) {
	broken := &memorySink{name: "broken", err: errors.New("unreachable")}
	ok := &memorySink{name: "ok"}
	d := NewDispatcher(logging.NewNop(), 10, 2, time.Second, broken, ok)

	var wg sync.WaitGroup
	d.Start(&wg)
	defer func() {
		d.Stop(time.Second)
		wg.Wait()
	}()

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, d.Enqueue(violation(id)))
	}
	require.Eventually(t, func() bool { return ok.count() == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, broken.count())
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	d := NewDispatcher(logging.NewNop(), 2, 1, time.Second)

	assert.True(t, d.Enqueue(violation("a")))
	assert.True(t, d.Enqueue(violation("b")))
	assert.False(t, d.Enqueue(violation("c")))
	// Notify never blocks, even when full
	d.Notify(violation("d"))
}

func TestDispatcher_SendTimeout(t *testing.T) {
	ok := &memorySink{name: "ok"}
	d := NewDispatcher(logging.NewNop(), 10, 1, 20*time.Millisecond, blockingSink{}, ok)

	var wg sync.WaitGroup
	d.Start(&wg)
	defer func() {
		d.Stop(time.Second)
		wg.Wait()
	}()

	d.Notify(violation("a"))
	require.Eventually(t, func() bool { return ok.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestDeliveryError(t *testing.T) {
	cause := errors.New("chat not found")
	err := &DeliveryError{Sink: "telegram", RequestID: "REQ-1", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "deliver REQ-1 via telegram: chat not found", err.Error())
}

type slowSink struct {
	memorySink
	delay time.Duration
}

func (s *slowSink) Send(ctx context.Context, n models.Notification) error {
	time.Sleep(s.delay)
	return s.memorySink.Send(ctx, n)
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	sink := &slowSink{memorySink: memorySink{name: "slow"}, delay: 5 * time.Millisecond}
	d := NewDispatcher(logging.NewNop(), 20, 1, time.Second, sink)

	var wg sync.WaitGroup
	d.Start(&wg)
	for i := 0; i < 10; i++ {
		require.True(t, d.Enqueue(violation(fmt.Sprintf("REQ-%d", i))))
	}
	d.Stop(2 * time.Second)
	wg.Wait()

	assert.Equal(t, 10, sink.count())
}

func TestDispatcher_StopGivesUpAtDeadline(t *testing.T) {
	d := NewDispatcher(logging.NewNop(), 10, 1, time.Minute, blockingSink{})

	var wg sync.WaitGroup
	d.Start(&wg)
	d.Notify(violation("a"))

	start := time.Now()
	d.Stop(50 * time.Millisecond)
	wg.Wait()
	assert.Less(t, time.Since(start), 5*time.Second)
}
