// Package memory is an in-process event channel. It is not durable: messages
// queued when the process exits are lost.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Apurer/go-gin-commerce/internal/platform/events"
)

var (
	_ events.Publisher  = (*Bus)(nil)
	_ events.Subscriber = (*Bus)(nil)
)

// Bus delivers each message once per consumer group. Members of a group
// compete for messages; a failing handler is retried up to MaxAttempts.
type Bus struct {
	mu          sync.RWMutex
	groups      map[string]map[string]*group
	closed      bool
	wg          sync.WaitGroup
	buffer      int
	maxAttempts int
	retryDelay  time.Duration
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *events.Metrics
}

type group struct {
	queue chan events.Message
}

type Option func(*Bus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(b *Bus) {
		if d >= 0 {
			b.retryDelay = d
		}
	}
}

func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(b *Bus) {
		b.metrics = events.NewMetrics(reg, "memory")
	}
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		groups:      map[string]map[string]*group{},
		buffer:      1024,
		maxAttempts: 5,
		retryDelay:  100 * time.Millisecond,
		timeout:     30 * time.Second,
		logger:      slog.Default(),
		metrics:     events.NewMetrics(nil, "memory"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Publish enqueues payload for every group subscribed to topic. Groups
// registered later never see it.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return "", events.ErrClosed
	}
	msg := events.Message{
		ID:      uuid.NewString(),
		Topic:   topic,
		Payload: append([]byte(nil), payload...),
		Headers: events.InjectTrace(ctx),
	}
	for name, g := range b.groups[topic] {
		select {
		case g.queue <- msg:
		case <-ctx.Done():
			return "", fmt.Errorf("publish %s to group %s: %w", topic, name, ctx.Err())
		}
	}
	b.metrics.Published.WithLabelValues(topic).Inc()
	b.logger.LogAttrs(ctx, slog.LevelDebug, "event published", slog.String("event.topic", topic), slog.String("event.id", msg.ID))
	return msg.ID, nil
}

func (b *Bus) Subscribe(ctx context.Context, topic, groupName string, h events.Handler) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return events.ErrClosed
	}
	byGroup, ok := b.groups[topic]
	if !ok {
		byGroup = map[string]*group{}
		b.groups[topic] = byGroup
	}
	g, ok := byGroup[groupName]
	if !ok {
		g = &group{queue: make(chan events.Message, b.buffer)}
		byGroup[groupName] = g
	}
	b.wg.Add(1)
	b.mu.Unlock()

	b.logger.LogAttrs(ctx, slog.LevelInfo, "event consumer subscribed", slog.String("event.topic", topic), slog.String("event.group", groupName))
	go b.consume(context.WithoutCancel(ctx), ctx.Done(), topic, groupName, g, h)
	return nil
}

// Close stops accepting messages, lets consumers drain what is queued and waits for them.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, byGroup := range b.groups {
		for _, g := range byGroup {
			close(g.queue)
		}
	}
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}

func (b *Bus) consume(ctx context.Context, stop <-chan struct{}, topic, groupName string, g *group, h events.Handler) {
	defer b.wg.Done()
	for {
		select {
		case <-stop:
			return
		case msg, ok := <-g.queue:
			if !ok {
				return
			}
			b.deliver(ctx, groupName, msg, h)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, groupName string, msg events.Message, h events.Handler) {
	ctx = events.ExtractTrace(ctx, msg.Headers)
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		msg.Attempt = attempt
		err := b.invoke(ctx, msg, h)
		if err == nil {
			b.metrics.Handled.WithLabelValues(msg.Topic, groupName).Inc()
			return
		}
		b.metrics.Failed.WithLabelValues(msg.Topic, groupName).Inc()
		b.logger.LogAttrs(ctx, slog.LevelWarn, "event handler failed",
			slog.String("event.topic", msg.Topic), slog.String("event.group", groupName),
			slog.String("event.id", msg.ID), slog.Int("event.attempt", attempt), slog.String("error", err.Error()))
		if attempt < b.maxAttempts && b.retryDelay > 0 {
			time.Sleep(b.retryDelay)
		}
	}
	b.metrics.DeadLetter.WithLabelValues(msg.Topic, groupName).Inc()
	b.logger.LogAttrs(ctx, slog.LevelError, "event dropped after retries",
		slog.String("event.topic", msg.Topic), slog.String("event.group", groupName), slog.String("event.id", msg.ID))
}

func (b *Bus) invoke(ctx context.Context, msg events.Message, h events.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			b.logger.LogAttrs(ctx, slog.LevelError, "event handler panicked",
				slog.String("event.topic", msg.Topic), slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return h(ctx, msg)
}
