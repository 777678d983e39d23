package mapper

import (
	"time"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
)

// Payment is the HTTP representation of a payment record.
type Payment struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	Method         string    `json:"method"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	IdempotencyKey string    `json:"idempotencyKey"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

func FromDomain(p *domain.Payment) Payment {
	if p == nil {
		return Payment{}
	}
	return Payment{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Method:         string(p.Method),
		Amount:         p.Amount,
		Status:         string(p.Status),
		Source:         string(p.Source),
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      p.CreatedAt,
	}
}

func FromDomainList(payments []*domain.Payment) []Payment {
	out := make([]Payment, 0, len(payments))
	for _, p := range payments {
		out = append(out, FromDomain(p))
	}
	return out
}

func MethodNames(methods []domain.Method) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		out = append(out, string(m))
	}
	return out
}
