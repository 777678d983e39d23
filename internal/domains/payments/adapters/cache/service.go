// Package cache keeps the payment method catalog in the shared cache.
package cache

import (
	"context"
	"log/slog"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/payments/ports"
	"github.com/Apurer/go-gin-commerce/internal/platform/cache"
)

var _ ports.Service = (*Service)(nil)

type Service struct {
	ports.Service
	cache  cache.Cache
	logger *slog.Logger
}

func New(inner ports.Service, c cache.Cache, logger *slog.Logger) *Service {
	return &Service{Service: inner, cache: c, logger: logger}
}

// PaymentTypes is cached without expiry; the catalog only changes on deploy.
func (s *Service) PaymentTypes(ctx context.Context) ([]domain.Method, error) {
	return cache.ReadThrough(ctx, s.cache, s.logger, cache.KeyPaymentTypes, cache.PaymentTypesTTL, s.Service.PaymentTypes)
}
