package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/payments/ports"
)

const tracerName = "github.com/Apurer/go-gin-commerce/internal/domains/payments/adapters/observability/service"

// Service decorates the payment ledger with tracing, logging, and metrics.
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

func (s *Service) Record(ctx context.Context, payments []*domain.Payment) ([]*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.Record", trace.WithAttributes(attribute.Int("payment.count", len(payments))))
	defer span.End()

	result, err := s.inner.Record(ctx, payments)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to record payments", slog.Int("payment.count", len(payments)))
	}
	for _, p := range result {
		s.metrics.recordPayment(ctx, p)
	}
	if len(result) > 0 {
		s.logInfo(ctx, "payments recorded", slog.String("order.id", result[0].OrderID), slog.Int("payment.count", len(result)))
	}
	return result, nil
}

func (s *Service) Void(ctx context.Context, ids []string) error {
	ctx, span := s.tracer.Start(ctx, "PaymentService.Void", trace.WithAttributes(attribute.StringSlice("payment.ids", ids)))
	defer span.End()

	if err := s.inner.Void(ctx, ids); err != nil {
		return s.handleError(ctx, span, err, "failed to void payments", slog.Any("payment.ids", ids))
	}
	s.logInfo(ctx, "payments voided", slog.Any("payment.ids", ids))
	return nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.ListByOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	result, err := s.inner.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list payments", slog.String("order.id", orderID))
	}
	span.SetAttributes(attribute.Int("payment.count", len(result)))
	return result, nil
}

func (s *Service) PaymentTypes(ctx context.Context) ([]domain.Method, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.PaymentTypes")
	defer span.End()

	result, err := s.inner.PaymentTypes(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list payment types")
	}
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
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

type serviceMetrics struct {
	recorded metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	recorded, _ := m.Int64Counter("payments.service.recorded", metric.WithDescription("Payment rows returned by Record, by method and source"))
	return serviceMetrics{recorded: recorded}
}

func (m serviceMetrics) recordPayment(ctx context.Context, p *domain.Payment) {
	if m.recorded == nil {
		return
	}
	m.recorded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment.method", string(p.Method)),
		attribute.String("payment.source", string(p.Source)),
	))
}

var _ ports.Service = (*Service)(nil)
