package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/payments/ports"
)

// Service orchestrates payment ledger use cases.
type Service struct {
	repo ports.Repository
	now  func() time.Time
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record validates and stores payments, assigning ids and timestamps.
func (s *Service) Record(ctx context.Context, payments []*domain.Payment) ([]*domain.Payment, error) {
	if len(payments) == 0 {
		return nil, errors.New("no payments to record")
	}
	now := s.now().UTC()
	batch := make([]*domain.Payment, 0, len(payments))
	for _, p := range payments {
		if p == nil {
			return nil, errors.New("payment is nil")
		}
		clone := *p
		if clone.ID == "" {
			clone.ID = uuid.NewString()
		}
		method, err := domain.ParseMethod(string(clone.Method))
		if err != nil {
			return nil, mapError(err)
		}
		clone.Method = method
		clone.Status = domain.StatusPending
		clone.CreatedAt = now
		if err := clone.Validate(); err != nil {
			return nil, mapError(err)
		}
		batch = append(batch, &clone)
	}
	return s.repo.Record(ctx, batch)
}

func (s *Service) Void(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.repo.Void(ctx, ids)
}

func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]*domain.Payment, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, mapError(domain.ErrMissingOrderID)
	}
	return s.repo.ListByOrder(ctx, orderID)
}

func (s *Service) PaymentTypes(context.Context) ([]domain.Method, error) {
	return domain.Methods(), nil
}

var _ ports.Service = (*Service)(nil)
