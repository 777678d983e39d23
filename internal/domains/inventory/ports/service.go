package ports

import (
	"context"

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
)

// Service exposes inventory use cases to adapters.
type Service interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	Reserve(ctx context.Context, id int64, quantity int64) (*domain.Product, error)
	Release(ctx context.Context, id int64, quantity int64) (*domain.Product, error)
	AdjustStock(ctx context.Context, id int64, delta int64) (*domain.Product, error)
}
