package ports

import (
	"context"

	inventorydomain "github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	notificationsdomain "github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	usersdomain "github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
)

// The collaborator ports below are satisfied both by the in-process services
// of the other contexts and by their HTTP clients. Implementations report
// absence with the owning context's ErrNotFound.

type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*usersdomain.User, error)
}

type Inventory interface {
	GetProduct(ctx context.Context, id int64) (*inventorydomain.Product, error)
	Reserve(ctx context.Context, id int64, quantity int64) (*inventorydomain.Product, error)
	Release(ctx context.Context, id int64, quantity int64) (*inventorydomain.Product, error)
}

type OrderLedger interface {
	CreateOrder(ctx context.Context, order *ordersdomain.Order) (*ordersdomain.Order, error)
	GetOrder(ctx context.Context, id string) (*ordersdomain.Order, error)
	ListOrders(ctx context.Context, filter ordersports.Filter) ([]*ordersdomain.Order, error)
	UpdateStatus(ctx context.Context, id string, next ordersdomain.Status, expectedVersion int64) (*ordersdomain.Order, error)
}

type PaymentLedger interface {
	Record(ctx context.Context, payments []*paymentsdomain.Payment) ([]*paymentsdomain.Payment, error)
	Void(ctx context.Context, ids []string) error
	ListByOrder(ctx context.Context, orderID string) ([]*paymentsdomain.Payment, error)
}

// ConfirmationNotifier must return without waiting for delivery.
type ConfirmationNotifier interface {
	NotifyPaymentConfirmed(ctx context.Context, req notificationsdomain.PaymentConfirmation) error
}
