// Package tasks runs fire-and-forget work (notifications, emails) on a bounded
// pool of workers detached from the request that submitted it.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// ErrQueueClosed is returned by Shutdown when called twice.
var ErrQueueClosed = errors.New("task queue closed")

// Func is a unit of background work.
type Func func(ctx context.Context) error

type task struct {
	name string
	fn   Func
	link trace.SpanContext
}

// Queue is a bounded background task queue. Submit never blocks: when the
// buffer is full the task is dropped and logged.
type Queue struct {
	tasks   chan task
	workers int
	timeout time.Duration
	logger  *slog.Logger
	metrics *queueMetrics
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	start   sync.Once
	ctx     context.Context
	cancel  context.CancelFunc
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithCapacity(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.tasks = make(chan task, n)
		}
	}
}

// WithTaskTimeout bounds every task run.
func WithTaskTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithRegisterer exports submitted/dropped/failed/completed counters.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(q *Queue) {
		q.metrics = newQueueMetrics(reg)
	}
}

func New(opts ...Option) *Queue {
	q := &Queue{
		tasks:   make(chan task, 256),
		workers: 4,
		timeout: 10 * time.Second,
		logger:  slog.Default(),
		metrics: newQueueMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// Start launches the workers. Tasks submitted before Start wait in the buffer.
func (q *Queue) Start(ctx context.Context) {
	q.start.Do(func() {
		q.ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work()
		}
		q.logger.LogAttrs(ctx, slog.LevelInfo, "task queue started", slog.Int("workers", q.workers), slog.Int("capacity", cap(q.tasks)))
	})
}

// Submit enqueues fn without waiting. It reports false when the task was dropped.
// The caller's span is linked, not parented, so the task outlives the request.
func (q *Queue) Submit(ctx context.Context, name string, fn Func) bool {
	if fn == nil {
		return false
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.metrics.dropped.WithLabelValues(name).Inc()
		q.logger.LogAttrs(ctx, slog.LevelWarn, "task dropped, queue closed", slog.String("task", name))
		return false
	}
	t := task{name: name, fn: fn, link: trace.SpanContextFromContext(ctx)}
	select {
	case q.tasks <- t:
		q.metrics.submitted.WithLabelValues(name).Inc()
		return true
	default:
		q.metrics.dropped.WithLabelValues(name).Inc()
		q.logger.LogAttrs(ctx, slog.LevelWarn, "task dropped, queue full", slog.String("task", name), slog.Int("capacity", cap(q.tasks)))
		return false
	}
}

// Shutdown stops accepting tasks and waits for the buffered ones to finish or ctx to expire.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	q.Start(ctx)
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for t := range q.tasks {
		q.run(t)
	}
}

func (q *Queue) run(t task) {
	ctx := q.ctx
	if t.link.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, t.link)
	}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	started := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panic: %v", r)
				q.logger.LogAttrs(ctx, slog.LevelError, "task panicked",
					slog.String("task", t.name), slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			}
		}()
		return t.fn(ctx)
	}()
	if err != nil {
		q.metrics.failed.WithLabelValues(t.name).Inc()
		q.logger.LogAttrs(ctx, slog.LevelWarn, "task failed",
			slog.String("task", t.name), slog.Duration("elapsed", time.Since(started)), slog.String("error", err.Error()))
		return
	}
	q.metrics.completed.WithLabelValues(t.name).Inc()
	q.logger.LogAttrs(ctx, slog.LevelDebug, "task completed", slog.String("task", t.name), slog.Duration("elapsed", time.Since(started)))
}

type queueMetrics struct {
	submitted *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	failed    *prometheus.CounterVec
	completed *prometheus.CounterVec
}

func newQueueMetrics(reg prometheus.Registerer) *queueMetrics {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commerce", Subsystem: "tasks", Name: name, Help: help,
		}, []string{"task"})
	}
	m := &queueMetrics{
		submitted: counter("submitted_total", "Background tasks accepted by the queue."),
		dropped:   counter("dropped_total", "Background tasks dropped because the queue was full or closed."),
		failed:    counter("failed_total", "Background tasks that returned an error or panicked."),
		completed: counter("completed_total", "Background tasks that finished successfully."),
	}
	if reg != nil {
		reg.MustRegister(m.submitted, m.dropped, m.failed, m.completed)
	}
	return m
}
