package observability

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/observability/service"

// Service decorates the order ledger with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	result, err := s.inner.CreateOrder(ctx, order)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order")
	}
	span.SetAttributes(attribute.String("order.id", result.ID), attribute.Float64("order.total", result.Total))
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "order created",
		slog.String("order.id", result.ID), slog.Int64("user.id", result.UserID), slog.Float64("order.total", result.Total))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, filter ports.Filter) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders",
		trace.WithAttributes(attribute.Int64("user.id", filter.UserID), attribute.String("order.status", string(filter.Status))))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, next domain.Status, expectedVersion int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(next)),
		attribute.Int64("order.expected_version", expectedVersion),
	))
	defer span.End()

	result, err := s.inner.UpdateStatus(ctx, id, next, expectedVersion)
	if err != nil {
		s.metrics.recordTransition(ctx, next, err)
		return nil, s.handleError(ctx, span, err, "failed to update order status",
			slog.String("order.id", id), slog.String("order.status", string(next)))
	}
	s.metrics.recordTransition(ctx, next, nil)
	s.logInfo(ctx, "order status updated",
		slog.String("order.id", id), slog.String("order.status", string(result.Status)), slog.Int64("order.version", result.Version))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger == nil {
		return err
	}
	level := slog.LevelError
	if rejected(err) {
		level = slog.LevelWarn
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, level, msg, attrs...)
	return err
}

func rejected(err error) bool {
	return errors.Is(err, ports.ErrNotFound) ||
		errors.Is(err, ports.ErrVersionConflict) ||
		errors.Is(err, domain.ErrAlreadyPaid) ||
		errors.Is(err, domain.ErrOrderCancelled) ||
		errors.Is(err, domain.ErrInvalidTransition)
}

type serviceMetrics struct {
	created     metric.Int64Counter
	transitions metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Orders persisted"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Order status transitions by target and outcome"))
	return serviceMetrics{created: created, transitions: transitions}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.created == nil {
		return
	}
	m.created.Add(ctx, 1)
}

func (m serviceMetrics) recordTransition(ctx context.Context, next domain.Status, err error) {
	if m.transitions == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, ports.ErrVersionConflict):
		outcome = "conflict"
	case rejected(err):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(next)), attribute.String("outcome", outcome)))
}

var _ ports.Service = (*Service)(nil)
