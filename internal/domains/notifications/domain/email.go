package domain

import (
	"errors"
	"math"
	"strings"
)

var (
	ErrMissingRecipient = errors.New("recipient is required")
	ErrMissingOrderID   = errors.New("order id is required")
	ErrInvalidAmount    = errors.New("amount must be a finite number")
	ErrMissingProduct   = errors.New("product id and name are required")
)

// Email is a rendered message ready for a sender.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// PaymentLine is one payment listed in a confirmation email.
type PaymentLine struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
}

// PaymentConfirmation asks for the "payment confirmed" email.
type PaymentConfirmation struct {
	To       string        `json:"to"`
	OrderID  string        `json:"orderId"`
	Amount   float64       `json:"amount"`
	Payments []PaymentLine `json:"payments,omitempty"`
}

func (p PaymentConfirmation) Validate() error {
	if strings.TrimSpace(p.To) == "" {
		return ErrMissingRecipient
	}
	if strings.TrimSpace(p.OrderID) == "" {
		return ErrMissingOrderID
	}
	if math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) {
		return ErrInvalidAmount
	}
	return nil
}

// LowStock asks for the restock alert sent to the supplier.
type LowStock struct {
	To           string `json:"to"`
	ProductID    int64  `json:"productId"`
	ProductName  string `json:"productName"`
	CurrentStock int64  `json:"currentStock"`
	Threshold    int64  `json:"threshold"`
}

func (l LowStock) Validate() error {
	if strings.TrimSpace(l.To) == "" {
		return ErrMissingRecipient
	}
	if l.ProductID <= 0 || strings.TrimSpace(l.ProductName) == "" {
		return ErrMissingProduct
	}
	return nil
}
