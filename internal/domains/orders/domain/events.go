package domain

import "time"

// OrderCreatedEvent is the payload published on the order.created topic.
// Consumers must tolerate a missing order or payment section.
type OrderCreatedEvent struct {
	EventID    string         `json:"eventId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Order      *OrderSnapshot `json:"order,omitempty"`
	Payment    *PaymentIntent `json:"payment,omitempty"`
}

// OrderSnapshot is the wire shape of an order.
type OrderSnapshot struct {
	ID        string         `json:"id"`
	UserID    int64          `json:"userId"`
	Items     []ItemSnapshot `json:"items"`
	Total     float64        `json:"total"`
	Status    Status         `json:"status"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
}

type ItemSnapshot struct {
	ProductID int64   `json:"productId"`
	Quantity  int64   `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// PaymentIntent announces the payment expected for a new order.
type PaymentIntent struct {
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
	Method  string  `json:"method"`
	Status  string  `json:"status"`
}

// Snapshot converts the aggregate to its wire shape.
func (o *Order) Snapshot() *OrderSnapshot {
	items := make([]ItemSnapshot, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemSnapshot{ProductID: item.ProductID, Quantity: item.Quantity, Subtotal: item.Subtotal})
	}
	return &OrderSnapshot{
		ID:        o.ID,
		UserID:    o.UserID,
		Items:     items,
		Total:     o.Total,
		Status:    o.Status,
		Version:   o.Version,
		CreatedAt: o.CreatedAt,
	}
}

// NewOrderCreatedEvent builds the event for a freshly persisted order.
func NewOrderCreatedEvent(eventID string, order *Order, method string, at time.Time) OrderCreatedEvent {
	return OrderCreatedEvent{
		EventID:    eventID,
		OccurredAt: at,
		Order:      order.Snapshot(),
		Payment: &PaymentIntent{
			OrderID: order.ID,
			Amount:  order.Total,
			Method:  method,
			Status:  "PENDING",
		},
	}
}
