package mapper

import (
	"time"

	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
)

type Item struct {
	ProductID int64   `json:"productId"`
	Quantity  int64   `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Order is the HTTP representation of an order and also the body of the
// ledger insert used by remote orchestrators.
type Order struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Items     []Item    `json:"items"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// StatusChange is the body of PATCH /orders/:id/status. A zero version
// applies the transition to whatever version is stored.
type StatusChange struct {
	Status  string `json:"status" binding:"required"`
	Version int64  `json:"version,omitempty"`
}

func FromDomain(o *domain.Order) Order {
	if o == nil {
		return Order{}
	}
	items := make([]Item, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, Item{ProductID: it.ProductID, Quantity: it.Quantity, Subtotal: it.Subtotal})
	}
	return Order{
		ID:        o.ID,
		UserID:    o.UserID,
		Items:     items,
		Total:     o.Total,
		Status:    string(o.Status),
		Version:   o.Version,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func FromDomainList(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromDomain(o))
	}
	return out
}

func ToDomain(o Order) *domain.Order {
	items := make([]domain.Item, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, domain.Item{ProductID: it.ProductID, Quantity: it.Quantity, Subtotal: it.Subtotal})
	}
	return &domain.Order{
		ID:        o.ID,
		UserID:    o.UserID,
		Items:     items,
		Total:     o.Total,
		Status:    domain.Status(o.Status),
		Version:   o.Version,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
