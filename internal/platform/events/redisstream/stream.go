// Package redisstream implements the event channel on redis streams with
// consumer groups. A message is acknowledged only after its handler succeeds.
package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-commerce/internal/platform/events"
)

var (
	_ events.Publisher  = (*Stream)(nil)
	_ events.Subscriber = (*Stream)(nil)
)

const (
	fieldPayload = "payload"
	fieldHeaders = "headers"
)

// Stream publishes with XADD and consumes with XREADGROUP.
type Stream struct {
	client      redis.UniversalClient
	consumer    string
	block       time.Duration
	batch       int64
	maxLen      int64
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
	metrics     *events.Metrics

	mu     sync.Mutex
	closed bool
	cancel []context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Stream)

// WithConsumerName names this process inside its groups. Pending entries of a
// consumer are re-read under the same name after a restart.
func WithConsumerName(name string) Option {
	return func(s *Stream) {
		if name != "" {
			s.consumer = name
		}
	}
}

func WithBlock(d time.Duration) Option {
	return func(s *Stream) {
		if d > 0 {
			s.block = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(s *Stream) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

// WithMaxLen caps each stream approximately.
func WithMaxLen(n int64) Option {
	return func(s *Stream) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Stream) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Stream) {
		s.metrics = events.NewMetrics(reg, "redis")
	}
}

func New(client redis.UniversalClient, opts ...Option) *Stream {
	host, _ := os.Hostname()
	if host == "" {
		host = "consumer"
	}
	s := &Stream{
		client:      client,
		consumer:    host,
		block:       2 * time.Second,
		batch:       16,
		maxLen:      100_000,
		maxAttempts: 5,
		retryDelay:  250 * time.Millisecond,
		logger:      slog.Default(),
		metrics:     events.NewMetrics(nil, "redis"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Stream) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	if s.isClosed() {
		return "", events.ErrClosed
	}
	headers, err := json.Marshal(events.InjectTrace(ctx))
	if err != nil {
		return "", fmt.Errorf("encode headers: %w", err)
	}
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{fieldPayload: payload, fieldHeaders: headers},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", topic, err)
	}
	s.metrics.Published.WithLabelValues(topic).Inc()
	return id, nil
}

// Subscribe creates group at the stream tail when it does not exist yet, so
// a new group starts from now. An existing group resumes where it left off.
func (s *Stream) Subscribe(ctx context.Context, topic, group string, h events.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return events.ErrClosed
	}
	err := s.client.XGroupCreateMkStream(ctx, topic, group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", group, topic, err)
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = append(s.cancel, cancel)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()
	s.wg.Add(1)
	go s.consume(runCtx, topic, group, h)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "event consumer subscribed",
		slog.String("event.topic", topic), slog.String("event.group", group), slog.String("event.consumer", s.consumer))
	return nil
}

// Close stops every consumer loop and waits for in-flight handlers.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, cancel := range s.cancel {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stream) consume(ctx context.Context, topic, group string, h events.Handler) {
	defer s.wg.Done()
	attempts := map[string]int{}
	for ctx.Err() == nil {
		// own pending entries first: unacked after a failure or a crash
		pending, err := s.read(ctx, topic, group, "0", -1)
		if err != nil {
			s.backoff(ctx, "read pending", topic, group, err)
			continue
		}
		if len(pending) > 0 {
			if !s.handleBatch(ctx, topic, group, pending, attempts, h) && s.retryDelay > 0 {
				sleep(ctx, s.retryDelay)
			}
			continue
		}
		fresh, err := s.read(ctx, topic, group, ">", s.block)
		if err != nil {
			s.backoff(ctx, "read", topic, group, err)
			continue
		}
		s.handleBatch(ctx, topic, group, fresh, attempts, h)
	}
}

func (s *Stream) read(ctx context.Context, topic, group, from string, block time.Duration) ([]redis.XMessage, error) {
	res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: s.consumer,
		Streams:  []string{topic, from},
		Count:    s.batch,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []redis.XMessage
	for _, stream := range res {
		out = append(out, stream.Messages...)
	}
	return out, nil
}

// handleBatch reports whether every message was acknowledged.
func (s *Stream) handleBatch(ctx context.Context, topic, group string, batch []redis.XMessage, attempts map[string]int, h events.Handler) bool {
	allAcked := true
	for _, raw := range batch {
		if ctx.Err() != nil {
			return false
		}
		attempts[raw.ID]++
		msg := decode(topic, raw, attempts[raw.ID])
		mctx := events.ExtractTrace(ctx, msg.Headers)
		err := h(mctx, msg)
		switch {
		case err == nil:
			s.metrics.Handled.WithLabelValues(topic, group).Inc()
		case attempts[raw.ID] >= s.maxAttempts:
			s.metrics.Failed.WithLabelValues(topic, group).Inc()
			s.metrics.DeadLetter.WithLabelValues(topic, group).Inc()
			s.logger.LogAttrs(mctx, slog.LevelError, "event dropped after retries",
				slog.String("event.topic", topic), slog.String("event.group", group),
				slog.String("event.id", raw.ID), slog.String("error", err.Error()))
		default:
			s.metrics.Failed.WithLabelValues(topic, group).Inc()
			s.logger.LogAttrs(mctx, slog.LevelWarn, "event handler failed",
				slog.String("event.topic", topic), slog.String("event.group", group),
				slog.String("event.id", raw.ID), slog.Int("event.attempt", attempts[raw.ID]), slog.String("error", err.Error()))
			allAcked = false
			continue
		}
		delete(attempts, raw.ID)
		if err := s.client.XAck(ctx, topic, group, raw.ID).Err(); err != nil {
			s.logger.LogAttrs(mctx, slog.LevelWarn, "event ack failed",
				slog.String("event.topic", topic), slog.String("event.id", raw.ID), slog.String("error", err.Error()))
			allAcked = false
		}
	}
	return allAcked
}

func decode(topic string, raw redis.XMessage, attempt int) events.Message {
	msg := events.Message{ID: raw.ID, Topic: topic, Attempt: attempt}
	if v, ok := raw.Values[fieldPayload].(string); ok {
		msg.Payload = []byte(v)
	}
	if v, ok := raw.Values[fieldHeaders].(string); ok && v != "" {
		_ = json.Unmarshal([]byte(v), &msg.Headers)
	}
	return msg
}

func (s *Stream) backoff(ctx context.Context, op, topic, group string, err error) {
	if ctx.Err() != nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "event consumer "+op+" failed",
		slog.String("event.topic", topic), slog.String("event.group", group), slog.String("error", err.Error()))
	sleep(ctx, time.Second)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
