package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
)

// DefaultLowStockThreshold applies when no threshold is configured.
const DefaultLowStockThreshold int64 = 5

// Service orchestrates inventory use cases.
type Service struct {
	repo      ports.Repository
	notifier  ports.LowStockNotifier
	threshold int64
	recipient string
	logger    *slog.Logger
}

type Option func(*Service)

// WithLowStockAlerts sends an alert to recipient whenever a mutation moves
// stock from above threshold to at or below it.
func WithLowStockAlerts(notifier ports.LowStockNotifier, threshold int64, recipient string) Option {
	return func(s *Service) {
		s.notifier = notifier
		if threshold >= 0 {
			s.threshold = threshold
		}
		s.recipient = recipient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, threshold: DefaultLowStockThreshold, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, product)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, err
	}
	s.checkLowStock(ctx, existing.Stock, saved)
	return saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

// Reserve atomically takes quantity out of stock.
func (s *Service) Reserve(ctx context.Context, id int64, quantity int64) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	product, err := s.repo.Reserve(ctx, id, quantity)
	if err != nil {
		return nil, err
	}
	s.checkLowStock(ctx, product.Stock+quantity, product)
	return product, nil
}

// Release puts quantity back; it compensates an earlier Reserve.
func (s *Service) Release(ctx context.Context, id int64, quantity int64) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	return s.repo.Adjust(ctx, id, quantity)
}

func (s *Service) AdjustStock(ctx context.Context, id int64, delta int64) (*domain.Product, error) {
	product, err := s.repo.Adjust(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.checkLowStock(ctx, product.Stock-delta, product)
	return product, nil
}

func (s *Service) checkLowStock(ctx context.Context, before int64, product *domain.Product) {
	if s.notifier == nil || product == nil || !domain.CrossesLowStock(before, product.Stock, s.threshold) {
		return
	}
	alert := ports.LowStockAlert{
		To:           s.recipient,
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.Stock,
		Threshold:    s.threshold,
	}
	if err := s.notifier.NotifyLowStock(ctx, alert); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "low stock notification failed",
			slog.Int64("product.id", product.ID), slog.Int64("product.stock", product.Stock), slog.String("error", err.Error()))
	}
}

var _ ports.Service = (*Service)(nil)
