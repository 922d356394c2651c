// internal/notification/dispatcher.go

package notification

import (
	"context"
	"sync"
	"time"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
)

const (
	defaultQueueSize = 256
	defaultWorkers   = 2
	defaultTimeout   = 10 * time.Second
)

type DispatcherConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

type job struct {
	requestID string
	event     Event
}

// Dispatcher queues events in process and delivers them to a Sink from worker
// goroutines. Notify never blocks the caller.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	queue   chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts the workers immediately
func NewDispatcher(sink Sink, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	d := &Dispatcher{
		sink:    sink,
		timeout: cfg.Timeout,
		queue:   make(chan job, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Notify enqueues the event. A full queue drops it and returns ErrQueueFull.
func (d *Dispatcher) Notify(ctx context.Context, event Event) error {
	event = event.Normalized()
	if event.UserID == 0 {
		return ErrNoRecipient
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		recordDropped("closed")
		return ErrClosed
	}

	// counted before the send so a worker's Dec never runs first
	queueDepth.Inc()
	select {
	case d.queue <- job{requestID: logging.RequestIDFromContext(ctx), event: event}:
		return nil
	default:
		queueDepth.Dec()
		recordDropped("queue_full")
		logging.Ctx(ctx).Warn().
			Str("kind", string(event.Kind)).
			Int64("user_id", event.UserID).
			Msg("notification queue full, dropping event")
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		queueDepth.Dec()
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if j.requestID != "" {
		ctx = logging.ContextWithRequestID(ctx, j.requestID)
	}

	start := time.Now()
	err := d.sink.Notify(ctx, j.event)
	deliveryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("kind", string(j.event.Kind)).
			Int64("user_id", j.event.UserID).
			Msg("notification delivery failed")
	}
}

// Close stops accepting events and waits for queued ones to be delivered,
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
