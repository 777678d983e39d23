package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Method is an accepted payment method.
type Method string

const (
	MethodPIX    Method = "PIX"
	MethodBoleto Method = "Boleto"
	MethodCard   Method = "Card"
)

// Status of a payment record. Both creation paths write PENDING.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// Source tells which path wrote the record.
type Source string

const (
	SourceConfirmation Source = "confirmation"
	SourceOrderEvent   Source = "order-event"
)

var (
	ErrInvalidMethod  = errors.New("payment method is not accepted")
	ErrInvalidAmount  = errors.New("payment amount must be a finite number greater than zero")
	ErrMissingOrderID = errors.New("payment order id is required")
	ErrMissingKey     = errors.New("payment idempotency key is required")
	ErrInvalidSource  = errors.New("payment source is invalid")
)

// Payment is an immutable payment record against an order.
type Payment struct {
	ID             string
	OrderID        string
	Method         Method
	Amount         float64
	Status         Status
	Source         Source
	IdempotencyKey string
	CreatedAt      time.Time
}

// Methods returns the accepted methods in catalog order.
func Methods() []Method {
	return []Method{MethodPIX, MethodBoleto, MethodCard}
}

// ParseMethod accepts method names case-insensitively; "Cartão" is an alias for Card.
func ParseMethod(raw string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pix":
		return MethodPIX, nil
	case "boleto":
		return MethodBoleto, nil
	case "card", "cartão", "cartao":
		return MethodCard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, raw)
	}
}

// NewPayment builds a PENDING payment.
func NewPayment(id, orderID string, method Method, amount float64, source Source, key string) (*Payment, error) {
	p := &Payment{
		ID:             strings.TrimSpace(id),
		OrderID:        strings.TrimSpace(orderID),
		Method:         method,
		Amount:         amount,
		Status:         StatusPending,
		Source:         source,
		IdempotencyKey: strings.TrimSpace(key),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Payment) Validate() error {
	if p.OrderID == "" {
		return ErrMissingOrderID
	}
	if _, err := ParseMethod(string(p.Method)); err != nil {
		return err
	}
	if !ValidAmount(p.Amount) {
		return ErrInvalidAmount
	}
	if p.IdempotencyKey == "" {
		return ErrMissingKey
	}
	if p.Source != SourceConfirmation && p.Source != SourceOrderEvent {
		return ErrInvalidSource
	}
	return nil
}

// ValidAmount reports whether amount is finite and positive.
func ValidAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0) && amount > 0
}

// ConfirmationKey is the idempotency key of the index-th payment of a
// confirmation against the given order version.
func ConfirmationKey(orderID string, version int64, index int) string {
	return fmt.Sprintf("confirmation:%s:v%d:%d", orderID, version, index)
}

// OrderEventKey is the idempotency key of the payment intent recorded from an order.created event.
func OrderEventKey(orderID string) string {
	return "order-created:" + orderID
}
