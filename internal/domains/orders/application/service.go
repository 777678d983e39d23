package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
)

// Service orchestrates order ledger use cases.
type Service struct {
	repo ports.Repository
	now  func() time.Time
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateOrder persists a new PENDING order, assigning an id when none is set.
func (s *Service) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	id := order.ID
	if id == "" {
		id = uuid.NewString()
	}
	fresh, err := domain.NewOrder(id, order.UserID, order.Items)
	if err != nil {
		return nil, mapError(err)
	}
	now := s.now().UTC()
	fresh.CreatedAt = now
	fresh.UpdatedAt = now
	return s.repo.Create(ctx, fresh)
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, filter ports.Filter) ([]*domain.Order, error) {
	if filter.Status != "" {
		status, err := domain.ParseStatus(string(filter.Status))
		if err != nil {
			return nil, mapError(err)
		}
		filter.Status = status
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, next domain.Status, expectedVersion int64) (*domain.Order, error) {
	status, err := domain.ParseStatus(string(next))
	if err != nil {
		return nil, mapError(err)
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != 0 && order.Version != expectedVersion {
		return nil, ports.ErrVersionConflict
	}
	loaded := order.Version
	if err := order.TransitionTo(status, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, order, loaded)
}

var _ ports.Service = (*Service)(nil)
