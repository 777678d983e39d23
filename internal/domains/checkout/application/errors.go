package application

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	checkoutports "github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	inventorydomain "github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	inventoryports "github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	usersports "github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
)

// Error classes. Transports map a class to a status code.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUpstream      = errors.New("upstream failure")
	ErrDataIntegrity = errors.New("data integrity violation")
)

var (
	ErrInvalidInput           = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrInvalidMethod          = fmt.Errorf("%w: invalid payment method", ErrValidation)
	ErrUserNotFound           = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrProductNotFound        = fmt.Errorf("%w: product not found", ErrNotFound)
	ErrOrderNotFound          = fmt.Errorf("%w: order not found", ErrNotFound)
	ErrOutOfStock             = fmt.Errorf("%w: insufficient stock", ErrConflict)
	ErrAlreadyPaid            = fmt.Errorf("%w: order already paid", ErrConflict)
	ErrOrderCancelled         = fmt.Errorf("%w: order cancelled", ErrConflict)
	ErrConfirmationInProgress = fmt.Errorf("%w: payment confirmation already in progress", ErrConflict)
	ErrAmountMismatch         = fmt.Errorf("%w: payment amount does not match order total", ErrConflict)
	ErrIdempotencyConflict    = fmt.Errorf("%w: idempotency key reused with a different request", ErrConflict)
	ErrPaymentsDiverged       = fmt.Errorf("%w: an earlier confirmation attempt recorded different payments", ErrConflict)
	ErrCreationInProgress     = fmt.Errorf("%w: order creation already in progress", ErrConflict)
	ErrInvalidOrderTotal      = fmt.Errorf("%w: order total is invalid", ErrDataIntegrity)
)

// AmountMismatchError carries both sides of a rejected confirmation.
type AmountMismatchError struct {
	Expected float64
	Provided float64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment amount %s does not match order total %s",
		decimal.NewFromFloat(e.Provided).StringFixed(2), decimal.NewFromFloat(e.Expected).StringFixed(2))
}

func (e *AmountMismatchError) Unwrap() error { return ErrAmountMismatch }

// Code returns the machine readable code of err, used as the problem "code" extension.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfStock):
		return "OUT_OF_STOCK"
	case errors.Is(err, ErrAmountMismatch):
		return "AMOUNT_MISMATCH"
	case errors.Is(err, ErrAlreadyPaid):
		return "ALREADY_PAID"
	case errors.Is(err, ErrOrderCancelled):
		return "ORDER_CANCELLED"
	case errors.Is(err, ErrConfirmationInProgress):
		return "CONFIRMATION_IN_PROGRESS"
	case errors.Is(err, ErrIdempotencyConflict):
		return "IDEMPOTENCY_CONFLICT"
	case errors.Is(err, ErrPaymentsDiverged):
		return "PAYMENTS_DIVERGED"
	case errors.Is(err, ErrCreationInProgress):
		return "CREATION_IN_PROGRESS"
	case errors.Is(err, ErrInvalidMethod):
		return "INVALID_PAYMENT_METHOD"
	case errors.Is(err, ErrUserNotFound):
		return "USER_NOT_FOUND"
	case errors.Is(err, ErrProductNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, ErrOrderNotFound):
		return "ORDER_NOT_FOUND"
	case errors.Is(err, ErrInvalidOrderTotal):
		return "INVALID_ORDER_TOTAL"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrUpstream):
		return "UPSTREAM_ERROR"
	case errors.Is(err, ErrDataIntegrity):
		return "DATA_INTEGRITY"
	default:
		return "INTERNAL_ERROR"
	}
}

// mapError classifies collaborator errors. Errors without a known sentinel
// pass through unchanged so transport errors keep their own type.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrUpstream), errors.Is(err, ErrDataIntegrity):
		return err
	case errors.Is(err, usersports.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrUserNotFound, err)
	case errors.Is(err, inventoryports.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrProductNotFound, err)
	case errors.Is(err, inventorydomain.ErrOutOfStock):
		return fmt.Errorf("%w: %w", ErrOutOfStock, err)
	case errors.Is(err, ordersports.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrOrderNotFound, err)
	case errors.Is(err, ordersdomain.ErrAlreadyPaid):
		return fmt.Errorf("%w: %w", ErrAlreadyPaid, err)
	case errors.Is(err, ordersdomain.ErrOrderCancelled):
		return fmt.Errorf("%w: %w", ErrOrderCancelled, err)
	case errors.Is(err, ordersports.ErrVersionConflict), errors.Is(err, ordersdomain.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, checkoutports.ErrIdempotencyConflict):
		return fmt.Errorf("%w: %w", ErrIdempotencyConflict, err)
	case errors.Is(err, paymentsdomain.ErrInvalidMethod):
		return fmt.Errorf("%w: %w", ErrInvalidMethod, err)
	case errors.Is(err, inventorydomain.ErrInvalidQuantity), errors.Is(err, paymentsdomain.ErrInvalidAmount),
		errors.Is(err, ordersdomain.ErrInvalidQuantity), errors.Is(err, ordersdomain.ErrNoItems):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}

var sentinelsByCode = map[string]error{
	"OUT_OF_STOCK":             ErrOutOfStock,
	"AMOUNT_MISMATCH":          ErrAmountMismatch,
	"ALREADY_PAID":             ErrAlreadyPaid,
	"ORDER_CANCELLED":          ErrOrderCancelled,
	"CONFIRMATION_IN_PROGRESS": ErrConfirmationInProgress,
	"IDEMPOTENCY_CONFLICT":     ErrIdempotencyConflict,
	"PAYMENTS_DIVERGED":        ErrPaymentsDiverged,
	"CREATION_IN_PROGRESS":     ErrCreationInProgress,
	"INVALID_PAYMENT_METHOD":   ErrInvalidMethod,
	"USER_NOT_FOUND":           ErrUserNotFound,
	"PRODUCT_NOT_FOUND":        ErrProductNotFound,
	"ORDER_NOT_FOUND":          ErrOrderNotFound,
	"INVALID_ORDER_TOTAL":      ErrInvalidOrderTotal,
	"VALIDATION_ERROR":         ErrInvalidInput,
	"NOT_FOUND":                ErrNotFound,
	"CONFLICT":                 ErrConflict,
	"UPSTREAM_ERROR":           ErrUpstream,
	"DATA_INTEGRITY":           ErrDataIntegrity,
}

// FromCode rebuilds a classified error from a code and message, for errors
// that crossed a process boundary as text. Unknown codes yield nil.
func FromCode(code, message string) error {
	sentinel, ok := sentinelsByCode[code]
	if !ok {
		return nil
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}

// IsBusinessError reports errors that retrying cannot fix.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrDataIntegrity)
}
