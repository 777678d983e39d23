package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyName    = errors.New("name is required")
	ErrEmptyEmail   = errors.New("email is required")
	ErrInvalidEmail = errors.New("email must contain '@'")
)

// User is a customer record. The checkout flow only reads it.
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// NewUser builds a user ensuring required invariants.
func NewUser(id int64, name, email string) (*User, error) {
	user := &User{ID: id}
	if err := user.UpdateProfile(name, email); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile trims and validates name and email.
func (u *User) UpdateProfile(name, email string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	u.Name = name
	u.Email = email
	return nil
}

// Validate re-applies core invariants for persistence.
func (u *User) Validate() error {
	return u.UpdateProfile(u.Name, u.Email)
}
