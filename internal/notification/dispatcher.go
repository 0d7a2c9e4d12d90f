package notification

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"sla-service/internal/logging"
	"sla-service/internal/metrics"
	"sla-service/internal/models"
)

// Sink delivers a notification to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, n models.Notification) error
}

// DeliveryError reports a failed send. It is logged, never returned to the monitor.
type DeliveryError struct {
	Sink      string
	RequestID string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s via %s: %v", e.RequestID, e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Dispatcher queues notifications and fans them out to every sink from a
// pool of workers.
type Dispatcher struct {
	sinks   []Sink
	logger  *logging.Logger
	queue   chan models.Notification
	workers int
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
	pending atomic.Int64
}

// NewDispatcher constructs a Dispatcher. Call Start to launch the workers.
func NewDispatcher(logger *logging.Logger, queueSize, workers int, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sinks:   sinks,
		logger:  logger,
		queue:   make(chan models.Notification, queueSize),
		workers: workers,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start(wg *sync.WaitGroup) {
	d.wg = wg
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop waits up to timeout for queued and in-flight notifications to be
// delivered, then signals the workers to exit. Anything left is dropped.
func (d *Dispatcher) Stop(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for d.pending.Load() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := d.pending.Load(); n > 0 {
		d.logger.Warnf("Stopping with %d undelivered notifications", n)
	}
	d.cancel()
}

// Notify enqueues n without blocking.
func (d *Dispatcher) Notify(n models.Notification) {
	d.Enqueue(n)
}

// Enqueue reports whether n was accepted; a full queue drops it.
func (d *Dispatcher) Enqueue(n models.Notification) bool {
	// counted before the send so a fast worker never drives it negative
	d.pending.Add(1)
	select {
	case d.queue <- n:
		d.logger.WithRequest(n.RequestID).Debugf("Queued %s notification", n.Type)
		return true
	default:
		d.pending.Add(-1)
		metrics.Failure("notify_queue")
		d.logger.WithRequest(n.RequestID).Errorf("Queue full, dropping %s notification", n.Type)
		return false
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			d.logger.Infof("Notification worker %d stopped", id)
			return
		case n := <-d.queue:
			d.dispatch(n)
			d.pending.Add(-1)
		}
	}
}

// dispatch sends n to every sink; one failing sink does not affect the others.
func (d *Dispatcher) dispatch(n models.Notification) {
	for _, sink := range d.sinks {
		err := d.send(sink, n)
		metrics.Delivery(sink.Name(), err)
		if err != nil {
			d.logger.Error((&DeliveryError{Sink: sink.Name(), RequestID: n.RequestID, Err: err}).Error())
			continue
		}
		d.logger.WithRequest(n.RequestID).Infof("Dispatched %s via %s", n.Type, sink.Name())
	}
}

func (d *Dispatcher) send(sink Sink, n models.Notification) error {
	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return sink.Send(ctx, n)
}
