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

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application"
	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
)

const tracerName = "github.com/Apurer/go-gin-commerce/internal/domains/checkout/adapters/observability/service"

// Service decorates the checkout sagas with tracing, logging, and metrics.
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

func (s *Service) CreateOrder(ctx context.Context, input types.CreateOrderInput) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.CreateOrder", trace.WithAttributes(
		attribute.Int64("user.id", input.UserID),
		attribute.Int("order.item_count", len(input.Items)),
		attribute.Bool("idempotency.key_present", input.IdempotencyKey != ""),
	))
	defer span.End()

	result, err := s.inner.CreateOrder(ctx, input)
	s.metrics.recordCreation(ctx, err)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order creation failed", slog.Int64("user.id", input.UserID))
	}
	span.SetAttributes(attribute.String("order.id", result.ID), attribute.Float64("order.total", result.Total))
	s.logInfo(ctx, "order creation completed",
		slog.String("order.id", result.ID), slog.Int64("user.id", result.UserID), slog.Float64("order.total", result.Total))
	return result, nil
}

func (s *Service) ConfirmPayment(ctx context.Context, input types.ConfirmPaymentInput) (*types.ConfirmationResult, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ConfirmPayment", trace.WithAttributes(
		attribute.String("order.id", input.OrderID),
		attribute.Int("payment.count", len(input.Payments)),
	))
	defer span.End()

	result, err := s.inner.ConfirmPayment(ctx, input)
	s.metrics.recordConfirmation(ctx, result, err)
	if err != nil {
		attrs := []slog.Attr{slog.String("order.id", input.OrderID)}
		var mismatch *application.AmountMismatchError
		if errors.As(err, &mismatch) {
			attrs = append(attrs, slog.Float64("amount.expected", mismatch.Expected), slog.Float64("amount.provided", mismatch.Provided))
		}
		return nil, s.handleError(ctx, span, err, "payment confirmation failed", attrs...)
	}
	span.SetAttributes(attribute.Float64("payment.amount", result.Amount), attribute.Int64("order.version", result.Order.Version))
	s.logInfo(ctx, "payment confirmed",
		slog.String("order.id", result.Order.ID), slog.Float64("payment.amount", result.Amount), slog.Int("payment.count", len(result.Payments)))
	return result, nil
}

func (s *Service) Reconcile(ctx context.Context, olderThan time.Duration) (*types.ReconcileReport, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.Reconcile", trace.WithAttributes(attribute.String("reconcile.older_than", olderThan.String())))
	defer span.End()

	report, err := s.inner.Reconcile(ctx, olderThan)
	if report != nil {
		span.SetAttributes(
			attribute.Int("reconcile.checked", report.Checked),
			attribute.Int("reconcile.repaired", len(report.Repaired)),
			attribute.Int("reconcile.failed", report.Failed),
		)
		s.metrics.recordRepaired(ctx, len(report.Repaired))
	}
	if err != nil {
		return report, s.handleError(ctx, span, err, "reconciliation failed")
	}
	if len(report.Repaired) > 0 || report.Failed > 0 {
		s.logInfo(ctx, "reconciliation finished",
			slog.Int("reconcile.checked", report.Checked), slog.Any("reconcile.repaired", report.Repaired), slog.Int("reconcile.failed", report.Failed))
	}
	return report, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	code := application.Code(err)
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.code", code))
	}
	if s.logger == nil {
		return err
	}
	level := slog.LevelError
	if rejected(err) {
		level = slog.LevelWarn
	}
	attrs = append(attrs, slog.String("error.code", code), slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, level, msg, attrs...)
	return err
}

// rejected reports business rejections, which are not service faults.
func rejected(err error) bool {
	return errors.Is(err, application.ErrValidation) ||
		errors.Is(err, application.ErrNotFound) ||
		errors.Is(err, application.ErrConflict)
}

type serviceMetrics struct {
	creations     metric.Int64Counter
	confirmations metric.Int64Counter
	confirmed     metric.Float64Histogram
	repaired      metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	creations, _ := m.Int64Counter("checkout.orders.created", metric.WithDescription("Order creation sagas by outcome code"))
	confirmations, _ := m.Int64Counter("checkout.payments.confirmations", metric.WithDescription("Payment confirmation sagas by outcome code"))
	confirmed, _ := m.Float64Histogram("checkout.payments.confirmed_amount", metric.WithDescription("Amount of confirmed payments"), metric.WithUnit("BRL"))
	repaired, _ := m.Int64Counter("checkout.reconcile.repaired", metric.WithDescription("Orders flipped to PAID by reconciliation"))
	return serviceMetrics{creations: creations, confirmations: confirmations, confirmed: confirmed, repaired: repaired}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return application.Code(err)
}

func (m serviceMetrics) recordCreation(ctx context.Context, err error) {
	if m.creations == nil {
		return
	}
	m.creations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
}

func (m serviceMetrics) recordConfirmation(ctx context.Context, result *types.ConfirmationResult, err error) {
	if m.confirmations != nil {
		m.confirmations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
	}
	if m.confirmed != nil && err == nil && result != nil {
		m.confirmed.Record(ctx, result.Amount)
	}
}

func (m serviceMetrics) recordRepaired(ctx context.Context, n int) {
	if m.repaired == nil || n == 0 {
		return
	}
	m.repaired.Add(ctx, int64(n))
}

var _ ports.Service = (*Service)(nil)
