package ports

import (
	"context"

	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
)

// Service exposes order ledger use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]*domain.Order, error)
	// UpdateStatus applies a transition. An expectedVersion of zero accepts
	// whatever version was just loaded.
	UpdateStatus(ctx context.Context, id string, next domain.Status, expectedVersion int64) (*domain.Order, error)
}
