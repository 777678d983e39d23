package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrAlreadyExists = errors.New("order already exists")
	// ErrVersionConflict means another writer changed the order since it was loaded.
	ErrVersionConflict = errors.New("order version conflict")
)

// Filter narrows List. Zero values match everything; results are newest first.
type Filter struct {
	UserID        int64
	Status        domain.Status
	CreatedBefore time.Time
	Limit         int
}

// Repository persists orders. Orders are never deleted.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter Filter) ([]*domain.Order, error)
	// Update stores order only when the stored version equals expectedVersion.
	Update(ctx context.Context, order *domain.Order, expectedVersion int64) (*domain.Order, error)
}
