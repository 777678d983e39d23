package ports

import (
	"context"
	"time"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
)

// Service exposes the checkout sagas to adapters.
type Service interface {
	CreateOrder(ctx context.Context, input types.CreateOrderInput) (*ordersdomain.Order, error)
	ConfirmPayment(ctx context.Context, input types.ConfirmPaymentInput) (*types.ConfirmationResult, error)
	Reconcile(ctx context.Context, olderThan time.Duration) (*types.ReconcileReport, error)
}

// OrderWorkflows runs order creation either durably (Temporal) or inline.
type OrderWorkflows interface {
	CreateOrder(ctx context.Context, input types.CreateOrderInput) (*ordersdomain.Order, error)
}
