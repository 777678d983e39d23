package mapper

import (
	"time"

	"github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
)

// UserPayload is the inbound body of create and update.
type UserPayload struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// User is the HTTP representation of a user.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func FromDomain(u *domain.User) User {
	if u == nil {
		return User{}
	}
	return User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func FromDomainList(users []*domain.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, FromDomain(u))
	}
	return out
}

func ToDomain(u User) *domain.User {
	return &domain.User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

const (
	CodeNotFound   = "USER_NOT_FOUND"
	CodeEmailTaken = "EMAIL_TAKEN"
)
