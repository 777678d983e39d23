package application

import (
	"context"

	"github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
)

// Service exposes user directory use cases.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateUser(ctx context.Context, name, email string) (*domain.User, error) {
	user, err := domain.NewUser(0, name, email)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, user)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, id int64, name, email string) (*domain.User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := existing.UpdateProfile(name, email); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, existing)
}

var _ ports.Service = (*Service)(nil)
