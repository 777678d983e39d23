// Package cache decorates the inventory service with the shared product
// listing cache. Every successful mutation drops the listing.
package cache

import (
	"context"
	"log/slog"

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-commerce/internal/platform/cache"
)

var _ ports.Service = (*Service)(nil)

type Service struct {
	inner  ports.Service
	cache  cache.Cache
	logger *slog.Logger
}

func New(inner ports.Service, c cache.Cache, logger *slog.Logger) *Service {
	return &Service{inner: inner, cache: c, logger: logger}
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return cache.ReadThrough(ctx, s.cache, s.logger, cache.KeyProductsAll, cache.ProductsTTL, s.inner.ListProducts)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.inner.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	return invalidating(ctx, s, func() (*domain.Product, error) { return s.inner.CreateProduct(ctx, product) })
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, product *domain.Product) (*domain.Product, error) {
	return invalidating(ctx, s, func() (*domain.Product, error) { return s.inner.UpdateProduct(ctx, id, product) })
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.inner.DeleteProduct(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, s.cache, s.logger, cache.KeyProductsAll)
	return nil
}

func (s *Service) Reserve(ctx context.Context, id int64, quantity int64) (*domain.Product, error) {
	return invalidating(ctx, s, func() (*domain.Product, error) { return s.inner.Reserve(ctx, id, quantity) })
}

func (s *Service) Release(ctx context.Context, id int64, quantity int64) (*domain.Product, error) {
	return invalidating(ctx, s, func() (*domain.Product, error) { return s.inner.Release(ctx, id, quantity) })
}

func (s *Service) AdjustStock(ctx context.Context, id int64, delta int64) (*domain.Product, error) {
	return invalidating(ctx, s, func() (*domain.Product, error) { return s.inner.AdjustStock(ctx, id, delta) })
}

func invalidating(ctx context.Context, s *Service, mutate func() (*domain.Product, error)) (*domain.Product, error) {
	product, err := mutate()
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.logger, cache.KeyProductsAll)
	return product, nil
}
