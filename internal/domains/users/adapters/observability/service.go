package observability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	userdomain "github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
	platformobservability "github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

const tracerName = "github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/observability"

// Service records one span, one outcome count and one latency sample per
// user directory call.
type Service struct {
	inner    userports.Service
	tracer   trace.Tracer
	logger   *slog.Logger
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		if m == nil {
			return
		}
		s.calls, _ = m.Int64Counter("users.service.calls",
			metric.WithDescription("User directory calls by operation and outcome"))
		s.duration, _ = m.Float64Histogram("users.service.duration",
			metric.WithDescription("User directory call latency"), metric.WithUnit("ms"))
	}
}

// New wraps the core user service.
func New(inner userports.Service, opts ...Option) userports.Service {
	s := &Service{inner: inner}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = platformobservability.DiscardLogger()
	}
	return s
}

func (s *Service) CreateUser(ctx context.Context, name, email string) (user *userdomain.User, err error) {
	ctx, done := s.observe(ctx, "CreateUser")
	defer func() { done(err, userAttrs(user)...) }()
	return s.inner.CreateUser(ctx, name, email)
}

func (s *Service) GetUser(ctx context.Context, id int64) (user *userdomain.User, err error) {
	ctx, done := s.observe(ctx, "GetUser", attribute.Int64("user.id", id))
	defer func() { done(err) }()
	return s.inner.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) (users []*userdomain.User, err error) {
	ctx, done := s.observe(ctx, "ListUsers")
	defer func() { done(err, attribute.Int("user.count", len(users))) }()
	return s.inner.ListUsers(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, id int64, name, email string) (user *userdomain.User, err error) {
	ctx, done := s.observe(ctx, "UpdateUser", attribute.Int64("user.id", id))
	defer func() { done(err) }()
	return s.inner.UpdateUser(ctx, id, name, email)
}

// observe opens the span for op; the returned func closes it with the outcome.
func (s *Service) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error, ...attribute.KeyValue)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "UserService."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error, extra ...attribute.KeyValue) {
		defer span.End()
		outcome := outcomeOf(err)
		span.SetAttributes(extra...)
		logAttrs := []slog.Attr{slog.String("op", op), slog.String("outcome", outcome)}
		for _, kv := range append(attrs, extra...) {
			logAttrs = append(logAttrs, slog.Any(string(kv.Key), kv.Value.AsInterface()))
		}

		level := slog.LevelDebug
		switch outcome {
		case "error":
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			level = slog.LevelError
		case "rejected":
			span.SetAttributes(attribute.String("user.rejection", err.Error()))
			level = slog.LevelWarn
		}
		if err != nil {
			logAttrs = append(logAttrs, slog.String("error", err.Error()))
		}
		s.logger.LogAttrs(ctx, level, "user directory call", logAttrs...)

		set := metric.WithAttributes(attribute.String("op", op), attribute.String("outcome", outcome))
		if s.calls != nil {
			s.calls.Add(ctx, 1, set)
		}
		if s.duration != nil {
			s.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, set)
		}
	}
}

// outcomeOf separates expected rejections from failures worth paging on.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, userports.ErrNotFound),
		errors.Is(err, userports.ErrEmailTaken),
		errors.Is(err, userdomain.ErrEmptyName),
		errors.Is(err, userdomain.ErrEmptyEmail),
		errors.Is(err, userdomain.ErrInvalidEmail):
		return "rejected"
	default:
		return "error"
	}
}

func userAttrs(user *userdomain.User) []attribute.KeyValue {
	if user == nil {
		return nil
	}
	return []attribute.KeyValue{attribute.Int64("user.id", user.ID)}
}

var _ userports.Service = (*Service)(nil)
