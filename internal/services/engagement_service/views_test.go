package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockViewCounter struct {
	mock.Mock
}

func (m *MockViewCounter) IncrementViews(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type countingCounter struct {
	n       atomic.Int64
	release chan struct{}
}

func (c *countingCounter) IncrementViews(ctx context.Context, _ uuid.UUID) error {
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.n.Add(1)
	return nil
}

func TestViewRecorder_CloseDrainsQueue(t *testing.T) {
	counter := &countingCounter{}
	r := NewViewRecorder(discard, counter, 2, 100, time.Second)

	for i := 0; i < 50; i++ {
		r.Record(uuid.New())
	}
	r.Close()

	assert.EqualValues(t, 50, counter.n.Load())
}

func TestViewRecorder_FullQueueRunsInline(t *testing.T) {
	counter := &countingCounter{release: make(chan struct{})}
	r := NewViewRecorder(discard, counter, 1, 0, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record(uuid.New())
		}()
	}

	close(counter.release)
	wg.Wait()
	r.Close()

	assert.EqualValues(t, 3, counter.n.Load())
}

func TestViewRecorder_RecordAfterClose(t *testing.T) {
	counter := &countingCounter{}
	r := NewViewRecorder(discard, counter, 1, 10, time.Second)
	r.Close()
	r.Close()

	r.Record(uuid.New())

	assert.EqualValues(t, 1, counter.n.Load())
}

func TestViewRecorder_FailureIsLogged(t *testing.T) {
	id := uuid.New()
	counter := new(MockViewCounter)
	counter.On("IncrementViews", mock.Anything, id).Return(errors.New("connection refused")).Once()

	r := NewViewRecorder(discard, counter, 1, 1, time.Second)
	r.Record(id)
	r.Close()

	counter.AssertExpectations(t)
}

// lowWaterGauge tracks the smallest value a gauge ever held.
type lowWaterGauge struct {
	prometheus.Gauge

	mu    sync.Mutex
	value float64
	low   float64
}

func (g *lowWaterGauge) Inc() { g.add(1) }
func (g *lowWaterGauge) Dec() { g.add(-1) }

func (g *lowWaterGauge) add(d float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value += d
	g.low = min(g.low, g.value)
}

func TestViewRecorder_QueueDepthNeverNegative(t *testing.T) {
	depth := &lowWaterGauge{Gauge: prometheus.NewGauge(prometheus.GaugeOpts{Name: "depth"})}
	counter := &countingCounter{}
	r := newViewRecorder(discard, counter, 4, 2, time.Second, depth)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.Record(uuid.New())
			}
		}()
	}
	wg.Wait()
	r.Close()

	assert.EqualValues(t, 1600, counter.n.Load())
	assert.GreaterOrEqual(t, depth.low, 0.0)
	assert.Zero(t, depth.value)
}
