// Package cache serves single-order reads from the shared cache. Status
// changes and creation drop the entry; the ledger stays authoritative.
package cache

import (
	"context"
	"log/slog"

	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
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

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return cache.ReadThrough(ctx, s.cache, s.logger, cache.OrderKey(id), cache.OrderTTL, func(ctx context.Context) (*domain.Order, error) {
		return s.inner.GetOrder(ctx, id)
	})
}

func (s *Service) ListOrders(ctx context.Context, filter ports.Filter) ([]*domain.Order, error) {
	return s.inner.ListOrders(ctx, filter)
}

func (s *Service) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	created, err := s.inner.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.logger, cache.OrderKey(created.ID))
	return created, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, next domain.Status, expectedVersion int64) (*domain.Order, error) {
	updated, err := s.inner.UpdateStatus(ctx, id, next, expectedVersion)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.logger, cache.OrderKey(id))
	return updated, nil
}

// Authoritative returns a view that reads straight from the ledger and still
// drops cache entries on writes. Callers that decide on an order's state, such
// as the payment confirmation saga, use it so a stale snapshot cannot leak in.
func (s *Service) Authoritative() ports.Service {
	return authoritative{s}
}

type authoritative struct{ *Service }

func (a authoritative) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return a.inner.GetOrder(ctx, id)
}
