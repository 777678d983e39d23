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

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
)

const tracerName = "github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/observability/service"

// Service decorates the inventory service with tracing, logging, and metrics.
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

// New wraps the core inventory service.
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

func (s *Service) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.CreateProduct")
	defer span.End()

	result, err := s.inner.CreateProduct(ctx, product)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create product")
	}
	span.SetAttributes(attribute.Int64("product.id", result.ID))
	s.logInfo(ctx, "product created", slog.Int64("product.id", result.ID), slog.Int64("product.stock", result.Stock))
	return result, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, product *domain.Product) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.UpdateProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	result, err := s.inner.UpdateProduct(ctx, id, product)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update product", slog.Int64("product.id", id))
	}
	s.logInfo(ctx, "product updated", slog.Int64("product.id", id), slog.Int64("product.stock", result.Stock))
	return result, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.DeleteProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := s.inner.DeleteProduct(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete product", slog.Int64("product.id", id))
	}
	s.logInfo(ctx, "product deleted", slog.Int64("product.id", id))
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	result, err := s.inner.GetProduct(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load product", slog.Int64("product.id", id))
	}
	return result, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ListProducts")
	defer span.End()

	result, err := s.inner.ListProducts(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products")
	}
	span.SetAttributes(attribute.Int("product.count", len(result)))
	return result, nil
}

func (s *Service) Reserve(ctx context.Context, id int64, quantity int64) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Reserve",
		trace.WithAttributes(attribute.Int64("product.id", id), attribute.Int64("stock.quantity", quantity)))
	defer span.End()

	result, err := s.inner.Reserve(ctx, id, quantity)
	if err != nil {
		s.metrics.recordStockChange(ctx, "reserve", err)
		return nil, s.handleError(ctx, span, err, "failed to reserve stock", slog.Int64("product.id", id), slog.Int64("stock.quantity", quantity))
	}
	s.metrics.recordStockChange(ctx, "reserve", nil)
	s.logInfo(ctx, "stock reserved", slog.Int64("product.id", id), slog.Int64("stock.quantity", quantity), slog.Int64("product.stock", result.Stock))
	return result, nil
}

func (s *Service) Release(ctx context.Context, id int64, quantity int64) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Release",
		trace.WithAttributes(attribute.Int64("product.id", id), attribute.Int64("stock.quantity", quantity)))
	defer span.End()

	result, err := s.inner.Release(ctx, id, quantity)
	if err != nil {
		s.metrics.recordStockChange(ctx, "release", err)
		return nil, s.handleError(ctx, span, err, "failed to release stock", slog.Int64("product.id", id), slog.Int64("stock.quantity", quantity))
	}
	s.metrics.recordStockChange(ctx, "release", nil)
	s.logInfo(ctx, "stock released", slog.Int64("product.id", id), slog.Int64("stock.quantity", quantity), slog.Int64("product.stock", result.Stock))
	return result, nil
}

func (s *Service) AdjustStock(ctx context.Context, id int64, delta int64) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.AdjustStock",
		trace.WithAttributes(attribute.Int64("product.id", id), attribute.Int64("stock.delta", delta)))
	defer span.End()

	result, err := s.inner.AdjustStock(ctx, id, delta)
	if err != nil {
		s.metrics.recordStockChange(ctx, "adjust", err)
		return nil, s.handleError(ctx, span, err, "failed to adjust stock", slog.Int64("product.id", id), slog.Int64("stock.delta", delta))
	}
	s.metrics.recordStockChange(ctx, "adjust", nil)
	s.logInfo(ctx, "stock adjusted", slog.Int64("product.id", id), slog.Int64("stock.delta", delta), slog.Int64("product.stock", result.Stock))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// Rejections (out of stock, bad adjustment) are expected outcomes and log at warn.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger == nil {
		return err
	}
	level := slog.LevelError
	if errors.Is(err, domain.ErrOutOfStock) || errors.Is(err, domain.ErrInvalidAdjustment) || errors.Is(err, ports.ErrNotFound) {
		level = slog.LevelWarn
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, level, msg, attrs...)
	return err
}

type serviceMetrics struct {
	stockChanges metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	stockChanges, _ := m.Int64Counter("inventory.service.stock_changes", metric.WithDescription("Stock mutations by kind and outcome"))
	return serviceMetrics{stockChanges: stockChanges}
}

func (m serviceMetrics) recordStockChange(ctx context.Context, kind string, err error) {
	if m.stockChanges == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		outcome = "out_of_stock"
	case errors.Is(err, domain.ErrInvalidAdjustment):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	m.stockChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("stock.change", kind), attribute.String("outcome", outcome)))
}

var _ ports.Service = (*Service)(nil)
