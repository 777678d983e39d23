package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/ports"
)

const tracerName = "github.com/Apurer/go-gin-commerce/internal/domains/notifications/adapters/observability/service"

// Service decorates email delivery with tracing, logging, and metrics.
type Service struct {
	inner  ports.Service
	tracer trace.Tracer
	logger *slog.Logger
	sent   metric.Int64Counter
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
		if m == nil {
			return
		}
		s.sent, _ = m.Int64Counter("notifications.service.emails", metric.WithDescription("Emails by template and outcome"))
	}
}

func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{inner: inner}
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

func (s *Service) SendPaymentConfirmation(ctx context.Context, req domain.PaymentConfirmation) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.SendPaymentConfirmation", trace.WithAttributes(attribute.String("order.id", req.OrderID)))
	defer span.End()

	err := s.inner.SendPaymentConfirmation(ctx, req)
	s.observe(ctx, span, "payment_confirmation", err, slog.String("order.id", req.OrderID))
	return err
}

func (s *Service) SendLowStock(ctx context.Context, req domain.LowStock) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.SendLowStock", trace.WithAttributes(attribute.Int64("product.id", req.ProductID)))
	defer span.End()

	err := s.inner.SendLowStock(ctx, req)
	s.observe(ctx, span, "low_stock", err, slog.Int64("product.id", req.ProductID), slog.Int64("product.stock", req.CurrentStock))
	return err
}

func (s *Service) observe(ctx context.Context, span trace.Span, template string, err error, attrs ...slog.Attr) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.sent != nil {
		s.sent.Add(ctx, 1, metric.WithAttributes(attribute.String("email.template", template), attribute.String("outcome", outcome)))
	}
	if s.logger == nil {
		return
	}
	attrs = append(attrs, slog.String("email.template", template))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelWarn, "email delivery failed", attrs...)
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "email delivered", attrs...)
}

var _ ports.Service = (*Service)(nil)
