package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrInvalidID         = errors.New("order id is required")
	ErrInvalidUser       = errors.New("user id must be greater than zero")
	ErrNoItems           = errors.New("order must contain at least one item")
	ErrInvalidProduct    = errors.New("product id must be greater than zero")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidSubtotal   = errors.New("subtotal must be a finite number greater than or equal to zero")
	ErrTotalMismatch     = errors.New("order total does not equal the sum of item subtotals")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrAlreadyPaid       = errors.New("order is already paid")
	ErrOrderCancelled    = errors.New("order is cancelled")
	ErrInvalidTransition = errors.New("order status transition is not allowed")
)

// Item is one order line. Subtotal is price times quantity at creation time.
type Item struct {
	ProductID int64
	Quantity  int64
	Subtotal  float64
}

// Order is the aggregate root of the checkout workflow. It is never deleted;
// Version grows by one on every status change.
type Order struct {
	ID        string
	UserID    int64
	Items     []Item
	Total     float64
	Status    Status
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder builds a PENDING order whose total is the cent-rounded sum of subtotals.
func NewOrder(id string, userID int64, items []Item) (*Order, error) {
	order := &Order{
		ID:      strings.TrimSpace(id),
		UserID:  userID,
		Items:   append([]Item(nil), items...),
		Status:  StatusPending,
		Version: 1,
	}
	order.Total = SumSubtotals(order.Items)
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// SumSubtotals adds subtotals in decimal and rounds to cents.
func SumSubtotals(items []Item) float64 {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Subtotal))
	}
	return sum.Round(2).InexactFloat64()
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return ErrInvalidID
	}
	if o.UserID <= 0 {
		return ErrInvalidUser
	}
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range o.Items {
		if item.ProductID <= 0 {
			return ErrInvalidProduct
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if math.IsNaN(item.Subtotal) || math.IsInf(item.Subtotal, 0) || item.Subtotal < 0 {
			return ErrInvalidSubtotal
		}
	}
	if !decimal.NewFromFloat(o.Total).Equal(decimal.NewFromFloat(SumSubtotals(o.Items))) {
		return ErrTotalMismatch
	}
	if _, err := ParseStatus(string(o.Status)); err != nil {
		return err
	}
	return nil
}

// CanTransition reports whether the order may move to next.
func (o *Order) CanTransition(next Status) error {
	if _, err := ParseStatus(string(next)); err != nil {
		return err
	}
	switch o.Status {
	case StatusPaid:
		return ErrAlreadyPaid
	case StatusCancelled:
		return ErrOrderCancelled
	case StatusPending:
		if next == StatusPaid || next == StatusFailed || next == StatusCancelled {
			return nil
		}
	case StatusFailed:
		if next == StatusPaid || next == StatusCancelled {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, next)
}

// TransitionTo moves the order to next and bumps its version.
func (o *Order) TransitionTo(next Status, at time.Time) error {
	if err := o.CanTransition(next); err != nil {
		return err
	}
	o.Status = next
	o.Version++
	o.UpdatedAt = at
	return nil
}

// Payable reports whether a confirmation may still be accepted.
func (o *Order) Payable() error {
	switch o.Status {
	case StatusPaid:
		return ErrAlreadyPaid
	case StatusCancelled:
		return ErrOrderCancelled
	}
	return nil
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusPaid, StatusFailed, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}
