package ports

import (
	"context"

	"github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
)

// Service exposes user directory use cases to adapters.
type Service interface {
	CreateUser(ctx context.Context, name, email string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, id int64, name, email string) (*domain.User, error)
}
