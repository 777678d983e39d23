// Package types holds the command and result shapes of the checkout use
// cases. They cross process boundaries as Temporal payloads, so every field
// is exported and JSON-friendly.
package types

import (
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
)

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// CreateOrderInput starts the order creation saga. IdempotencyKey is optional;
// a retried request with the same key and payload replays the first result.
type CreateOrderInput struct {
	UserID         int64       `json:"userId"`
	Items          []ItemInput `json:"items"`
	IdempotencyKey string      `json:"idempotencyKey,omitempty"`
}

// Reservation is the stock taken for one product, aggregated over the order lines.
type Reservation struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// PreparedOrder is the validated and priced order, ready for the side effects.
// The order id is fixed here so persisting it again after a retry is harmless.
type PreparedOrder struct {
	OrderID      string              `json:"orderId"`
	UserID       int64               `json:"userId"`
	Items        []ordersdomain.Item `json:"items"`
	Total        float64             `json:"total"`
	Reservations []Reservation       `json:"reservations"`
}

// PaymentInput is one payment of a confirmation (split payments allowed).
type PaymentInput struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
}

// ConfirmPaymentInput starts the payment confirmation saga.
type ConfirmPaymentInput struct {
	OrderID  string         `json:"orderId"`
	Payments []PaymentInput `json:"payments"`
}

// ConfirmationResult is returned by a successful confirmation.
type ConfirmationResult struct {
	Order    *ordersdomain.Order       `json:"order"`
	Payments []*paymentsdomain.Payment `json:"payments"`
	Amount   float64                   `json:"amount"`
}

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Checked  int      `json:"checked"`
	Repaired []string `json:"repaired"`
	Failed   int      `json:"failed"`
}
