// Package cache serves user lookups from the shared cache and drops the
// entry whenever the user changes.
package cache

import (
	"context"
	"log/slog"

	"github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
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

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return cache.ReadThrough(ctx, s.cache, s.logger, cache.UserKey(id), cache.UserTTL, func(ctx context.Context) (*domain.User, error) {
		return s.inner.GetUser(ctx, id)
	})
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.inner.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, name, email string) (*domain.User, error) {
	user, err := s.inner.CreateUser(ctx, name, email)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.logger, cache.UserKey(user.ID))
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int64, name, email string) (*domain.User, error) {
	user, err := s.inner.UpdateUser(ctx, id, name, email)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, s.logger, cache.UserKey(id))
	return user, nil
}
