package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	inventorymemory "github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/memory"
	inventoryapp "github.com/Apurer/go-gin-commerce/internal/domains/inventory/application"
	inventorydomain "github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	notificationsdomain "github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	ordersmemory "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/go-gin-commerce/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	paymentsmemory "github.com/Apurer/go-gin-commerce/internal/domains/payments/adapters/memory"
	paymentsapp "github.com/Apurer/go-gin-commerce/internal/domains/payments/application"
	usersmemory "github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/memory"
	usersapp "github.com/Apurer/go-gin-commerce/internal/domains/users/application"
	"github.com/Apurer/go-gin-commerce/internal/platform/cache"
	"github.com/Apurer/go-gin-commerce/internal/platform/events"
	eventsmemory "github.com/Apurer/go-gin-commerce/internal/platform/events/memory"
	"github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

// harness wires every collaborator in memory, the way cmd/api does without
// external infrastructure.
type harness struct {
	users     *usersapp.Service
	inventory *inventoryapp.Service
	orders    *ordersapp.Service
	payments  *paymentsapp.Service
	bus       *eventsmemory.Bus
	cache     *cache.Memory
	notifier  *captureNotifier
	buyers    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := observability.DiscardLogger()
	bus := eventsmemory.NewBus(eventsmemory.WithLogger(logger))
	t.Cleanup(func() { _ = bus.Close() })
	return &harness{
		users:     usersapp.NewService(usersmemory.NewRepository()),
		inventory: inventoryapp.NewService(inventorymemory.NewRepository(), inventoryapp.WithLogger(logger)),
		orders:    ordersapp.NewService(ordersmemory.NewRepository()),
		payments:  paymentsapp.NewService(paymentsmemory.NewRepository()),
		bus:       bus,
		cache:     cache.NewMemory(),
		notifier:  &captureNotifier{},
	}
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Users:     h.users,
		Inventory: h.inventory,
		Orders:    h.orders,
		Payments:  h.payments,
		Publisher: h.bus,
	}
}

func (h *harness) service(opts ...Option) *Service {
	base := []Option{
		WithLogger(observability.DiscardLogger()),
		WithCache(h.cache),
		WithNotifier(h.notifier),
	}
	return NewService(h.deps(), append(base, opts...)...)
}

func (h *harness) user(t *testing.T, email string) int64 {
	t.Helper()
	u, err := h.users.CreateUser(context.Background(), "Maria", email)
	require.NoError(t, err)
	return u.ID
}

func (h *harness) product(t *testing.T, name string, price float64, stock int64) int64 {
	t.Helper()
	p, err := inventorydomain.NewProduct(0, name, price, stock)
	require.NoError(t, err)
	saved, err := h.inventory.CreateProduct(context.Background(), p)
	require.NoError(t, err)
	return saved.ID
}

func (h *harness) stock(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := h.inventory.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

// pendingOrder creates an order of total 20 through the saga.
func (h *harness) pendingOrder(t *testing.T, svc *Service) *ordersdomain.Order {
	t.Helper()
	h.buyers++
	userID := h.user(t, fmt.Sprintf("buyer%d@example.com", h.buyers))
	productID := h.product(t, "Caneca", 10, 5)
	order, err := svc.CreateOrder(context.Background(), types.CreateOrderInput{
		UserID: userID,
		Items:  []types.ItemInput{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)
	return order
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []notificationsdomain.PaymentConfirmation
}

func (c *captureNotifier) NotifyPaymentConfirmed(_ context.Context, req notificationsdomain.PaymentConfirmation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, req)
	return nil
}

func (c *captureNotifier) all() []notificationsdomain.PaymentConfirmation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notificationsdomain.PaymentConfirmation(nil), c.sent...)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, []byte) (string, error) {
	return "", errors.New("broker unavailable")
}

var _ events.Publisher = failingPublisher{}
