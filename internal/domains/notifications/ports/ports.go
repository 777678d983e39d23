package ports

import (
	"context"

	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
)

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, email domain.Email) error
}

// Service renders and sends notification emails.
type Service interface {
	SendPaymentConfirmation(ctx context.Context, req domain.PaymentConfirmation) error
	SendLowStock(ctx context.Context, req domain.LowStock) error
}
