package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Repository interface {
	// Save inserts when ID is zero, updates otherwise. A duplicate email yields ErrEmailTaken.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
