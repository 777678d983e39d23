package mapper

import (
	"errors"

	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
)

// Problem codes of the order ledger routes.
const (
	CodeNotFound          = "ORDER_NOT_FOUND"
	CodeAlreadyExists     = "ORDER_EXISTS"
	CodeVersionConflict   = "VERSION_CONFLICT"
	CodeAlreadyPaid       = "ALREADY_PAID"
	CodeCancelled         = "ORDER_CANCELLED"
	CodeInvalidTransition = "INVALID_TRANSITION"
)

var sentinels = []struct {
	code string
	err  error
}{
	{CodeNotFound, ports.ErrNotFound},
	{CodeAlreadyExists, ports.ErrAlreadyExists},
	{CodeVersionConflict, ports.ErrVersionConflict},
	{CodeAlreadyPaid, domain.ErrAlreadyPaid},
	{CodeCancelled, domain.ErrOrderCancelled},
	{CodeInvalidTransition, domain.ErrInvalidTransition},
}

// ErrorCode returns the problem code of a ledger error, or "".
func ErrorCode(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return ""
}

// ErrorFromCode is the inverse of ErrorCode; it returns nil for unknown codes.
func ErrorFromCode(code string) error {
	for _, s := range sentinels {
		if s.code == code {
			return s.err
		}
	}
	return nil
}
