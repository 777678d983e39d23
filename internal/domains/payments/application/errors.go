package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid payment input")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidMethod) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrMissingOrderID) ||
		errors.Is(err, domain.ErrMissingKey) ||
		errors.Is(err, domain.ErrInvalidSource) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
