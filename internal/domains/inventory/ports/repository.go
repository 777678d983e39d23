package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
)

var ErrNotFound = errors.New("product not found")

// Repository persists products. Reserve and Adjust are atomic conditional
// updates: two concurrent reservations never both succeed past available stock.
type Repository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Product, error)
	// Reserve fails with domain.ErrOutOfStock when stock < quantity.
	Reserve(ctx context.Context, id int64, quantity int64) (*domain.Product, error)
	// Adjust fails with domain.ErrInvalidAdjustment when stock+delta < 0.
	Adjust(ctx context.Context, id int64, delta int64) (*domain.Product, error)
}
