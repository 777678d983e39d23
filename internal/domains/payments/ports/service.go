package ports

import (
	"context"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
)

// Service exposes payment ledger use cases to adapters.
type Service interface {
	Record(ctx context.Context, payments []*domain.Payment) ([]*domain.Payment, error)
	Void(ctx context.Context, ids []string) error
	ListByOrder(ctx context.Context, orderID string) ([]*domain.Payment, error)
	PaymentTypes(ctx context.Context) ([]domain.Method, error)
}
