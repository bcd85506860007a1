package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quill/internal/lib/logger/sl"
	"quill/internal/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type ViewCounter interface {
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// ViewRecorder applies view increments off the request path. Increments are
// never dropped: when the queue is full, or the recorder is closed, the
// increment runs on the caller's goroutine instead.
type ViewRecorder struct {
	log     *slog.Logger
	counter ViewCounter
	timeout time.Duration
	depth   prometheus.Gauge

	mu     sync.RWMutex
	closed bool
	queue  chan uuid.UUID
	wg     sync.WaitGroup
}

func NewViewRecorder(log *slog.Logger, counter ViewCounter, workers, queueSize int, timeout time.Duration) *ViewRecorder {
	return newViewRecorder(log, counter, workers, queueSize, timeout, metrics.ViewQueueDepth)
}

func newViewRecorder(log *slog.Logger, counter ViewCounter, workers, queueSize int, timeout time.Duration, depth prometheus.Gauge) *ViewRecorder {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	r := &ViewRecorder{
		log:     log,
		counter: counter,
		timeout: timeout,
		depth:   depth,
		queue:   make(chan uuid.UUID, queueSize),
	}

	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.work()
	}

	return r
}

func (r *ViewRecorder) Record(id uuid.UUID) {
	r.mu.RLock()
	if !r.closed {
		// counted before the send so a worker can never decrement first
		r.depth.Inc()
		select {
		case r.queue <- id:
			r.mu.RUnlock()
			return
		default:
			r.depth.Dec()
		}
	}
	r.mu.RUnlock()

	r.apply(id, "inline")
}

// Close stops accepting queued work and waits for the pending increments to be applied.
func (r *ViewRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *ViewRecorder) work() {
	defer r.wg.Done()

	for id := range r.queue {
		r.depth.Dec()
		r.apply(id, "queued")
	}
}

func (r *ViewRecorder) apply(id uuid.UUID, mode string) {
	const op = "engagement_service.ViewRecorder.apply"

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.counter.IncrementViews(ctx, id); err != nil {
		metrics.ViewsFailed.Inc()
		r.log.Error("failed to increment views",
			slog.String("op", op),
			slog.String("post_id", id.String()),
			sl.Err(err),
		)
		return
	}

	metrics.ViewsRecorded.WithLabelValues(mode).Inc()
}
