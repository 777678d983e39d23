package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
)

var ErrNotFound = errors.New("payment not found")

// Repository is the payment ledger.
type Repository interface {
	// Record stores payments atomically. A payment whose idempotency key is
	// already stored is not written again; the stored row is returned in its place.
	Record(ctx context.Context, payments []*domain.Payment) ([]*domain.Payment, error)
	// Void removes the given rows. Missing ids are ignored.
	Void(ctx context.Context, ids []string) error
	// ListByOrder returns an order's payments, newest first.
	ListByOrder(ctx context.Context, orderID string) ([]*domain.Payment, error)
}
