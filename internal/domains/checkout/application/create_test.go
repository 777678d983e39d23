package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/adapters/memory"
	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	inventorydomain "github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
	paymentsapp "github.com/Apurer/go-gin-commerce/internal/domains/payments/application"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/platform/events"
	"github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

func TestCreateOrder_ReservesStockPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service(WithDefaultMethod(paymentsdomain.MethodPIX))

	published := make(chan ordersdomain.OrderCreatedEvent, 1)
	require.NoError(t, h.bus.Subscribe(ctx, events.TopicOrderCreated, "test", func(_ context.Context, msg events.Message) error {
		var evt ordersdomain.OrderCreatedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}
		published <- evt
		return nil
	}))
	recorder := paymentsapp.NewRecorder(h.payments, h.bus, paymentsapp.WithRecorderLogger(observability.DiscardLogger()))
	require.NoError(t, recorder.Start(ctx))

	userID := h.user(t, "maria@example.com")
	productID := h.product(t, "Caneca", 10, 5)

	order, err := svc.CreateOrder(ctx, types.CreateOrderInput{
		UserID: userID,
		Items:  []types.ItemInput{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPending, order.Status)
	require.Equal(t, 20.0, order.Total)
	require.Equal(t, 20.0, order.Items[0].Subtotal)
	require.Equal(t, int64(3), h.stock(t, productID))

	evt := <-published
	require.Equal(t, order.ID, evt.Order.ID)
	require.Equal(t, 20.0, evt.Payment.Amount)
	require.Equal(t, "PIX", evt.Payment.Method)
	require.Equal(t, "PENDING", evt.Payment.Status)

	require.NoError(t, h.bus.Close())
	intents, err := h.payments.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	require.Equal(t, paymentsdomain.SourceOrderEvent, intents[0].Source)
}

func TestCreateOrder_DecimalTotals(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	userID := h.user(t, "ana@example.com")
	a := h.product(t, "Lápis", 0.1, 10)
	b := h.product(t, "Borracha", 0.2, 10)

	order, err := svc.CreateOrder(context.Background(), types.CreateOrderInput{
		UserID: userID,
		Items:  []types.ItemInput{{ProductID: a, Quantity: 3}, {ProductID: b, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 0.3, order.Items[0].Subtotal)
	require.Equal(t, 0.5, order.Total)
}

func TestCreateOrder_RejectsBeforeSideEffects(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	userID := h.user(t, "maria@example.com")
	productID := h.product(t, "Caneca", 10, 5)

	cases := []struct {
		name  string
		input types.CreateOrderInput
		want  error
	}{
		{"missing user id", types.CreateOrderInput{Items: []types.ItemInput{{ProductID: productID, Quantity: 1}}}, ErrValidation},
		{"no items", types.CreateOrderInput{UserID: userID}, ErrInvalidInput},
		{"zero quantity", types.CreateOrderInput{UserID: userID, Items: []types.ItemInput{{ProductID: productID, Quantity: 0}}}, ErrInvalidInput},
		{"unknown user", types.CreateOrderInput{UserID: 999, Items: []types.ItemInput{{ProductID: productID, Quantity: 1}}}, ErrUserNotFound},
		{"unknown product", types.CreateOrderInput{UserID: userID, Items: []types.ItemInput{{ProductID: 999, Quantity: 1}}}, ErrProductNotFound},
		{"over stock", types.CreateOrderInput{UserID: userID, Items: []types.ItemInput{{ProductID: productID, Quantity: 6}}}, ErrOutOfStock},
		{"aggregated over stock", types.CreateOrderInput{UserID: userID, Items: []types.ItemInput{
			{ProductID: productID, Quantity: 3}, {ProductID: productID, Quantity: 3},
		}}, ErrOutOfStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.want)
		})
	}
	require.Equal(t, int64(5), h.stock(t, productID))
	orders, err := h.orders.ListOrders(context.Background(), ordersports.Filter{})
	require.NoError(t, err)
	require.Empty(t, orders)
}

// drainingInventory simulates a concurrent buyer emptying one product
// between the stock check and the reservation.
type drainingInventory struct {
	ports.Inventory
	drain int64
}

func (d *drainingInventory) Reserve(ctx context.Context, id int64, quantity int64) (*inventorydomain.Product, error) {
	if id == d.drain {
		p, err := d.Inventory.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if _, err := d.Inventory.Reserve(ctx, id, p.Stock); err != nil {
			return nil, err
		}
	}
	return d.Inventory.Reserve(ctx, id, quantity)
}

func TestCreateOrder_ReleasesEarlierReservationsWhenOneFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	userID := h.user(t, "maria@example.com")
	first := h.product(t, "Caneca", 10, 5)
	second := h.product(t, "Camiseta", 50, 1)

	deps := h.deps()
	deps.Inventory = &drainingInventory{Inventory: h.inventory, drain: second}
	svc := NewService(deps, WithLogger(observability.DiscardLogger()))

	_, err := svc.CreateOrder(ctx, types.CreateOrderInput{
		UserID: userID,
		Items:  []types.ItemInput{{ProductID: first, Quantity: 2}, {ProductID: second, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrOutOfStock)
	require.Equal(t, "OUT_OF_STOCK", Code(err))
	require.Equal(t, int64(5), h.stock(t, first))

	orders, err := h.orders.ListOrders(ctx, ordersports.Filter{UserID: userID})
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCreateOrder_PublishFailureCancelsOrderAndReleasesStock(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	userID := h.user(t, "maria@example.com")
	productID := h.product(t, "Caneca", 10, 5)

	deps := h.deps()
	deps.Publisher = failingPublisher{}
	svc := NewService(deps, WithLogger(observability.DiscardLogger()))

	_, err := svc.CreateOrder(ctx, types.CreateOrderInput{
		UserID: userID,
		Items:  []types.ItemInput{{ProductID: productID, Quantity: 2}},
	})
	require.ErrorIs(t, err, ErrUpstream)
	require.Equal(t, int64(5), h.stock(t, productID))

	orders, err := h.orders.ListOrders(ctx, ordersports.Filter{UserID: userID})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, ordersdomain.StatusCancelled, orders[0].Status)
}

func TestCreateOrder_IdempotencyKeyReplaysFirstResult(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service(WithIdempotencyStore(memory.NewIdempotencyStore()))
	userID := h.user(t, "maria@example.com")
	productID := h.product(t, "Caneca", 10, 5)

	input := types.CreateOrderInput{
		UserID:         userID,
		Items:          []types.ItemInput{{ProductID: productID, Quantity: 2}},
		IdempotencyKey: "checkout-42",
	}
	first, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, int64(3), h.stock(t, productID))

	input.Items[0].Quantity = 1
	_, err = svc.CreateOrder(ctx, input)
	require.ErrorIs(t, err, ErrIdempotencyConflict)
}

func TestCreateOrder_IdempotencyKeyRetriesAfterEarlyFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	store := memory.NewIdempotencyStore()
	userID := h.user(t, "maria@example.com")
	productID := h.product(t, "Caneca", 10, 5)
	input := types.CreateOrderInput{
		UserID:         userID,
		Items:          []types.ItemInput{{ProductID: productID, Quantity: 2}},
		IdempotencyKey: "retry-me",
	}

	deps := h.deps()
	deps.Inventory = &drainingInventory{Inventory: h.inventory, drain: productID}
	_, err := NewService(deps, WithLogger(observability.DiscardLogger()), WithIdempotencyStore(store)).CreateOrder(ctx, input)
	require.ErrorIs(t, err, ErrOutOfStock)
	claimed, err := store.Get(ctx, "retry-me")
	require.NoError(t, err)
	require.NotNil(t, claimed)

	_, err = h.inventory.AdjustStock(ctx, productID, 5)
	require.NoError(t, err)
	order, err := h.service(WithIdempotencyStore(store)).CreateOrder(ctx, input)
	require.NoError(t, err)
	require.Equal(t, claimed.OrderID, order.ID)
}

func TestPersistOrder_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service()
	userID := h.user(t, "maria@example.com")
	productID := h.product(t, "Caneca", 10, 5)

	prepared, err := svc.Prepare(ctx, types.CreateOrderInput{UserID: userID, Items: []types.ItemInput{{ProductID: productID, Quantity: 1}}})
	require.NoError(t, err)
	require.Equal(t, []types.Reservation{{ProductID: productID, Quantity: 1}}, prepared.Reservations)

	first, err := svc.PersistOrder(ctx, prepared)
	require.NoError(t, err)
	again, err := svc.PersistOrder(ctx, prepared)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)

	require.NoError(t, svc.CancelOrder(ctx, first.ID))
	require.NoError(t, svc.CancelOrder(ctx, first.ID))
}

func TestFingerprintCreateOrder_IgnoresItemOrderAndKey(t *testing.T) {
	a, err := FingerprintCreateOrder(types.CreateOrderInput{UserID: 1, IdempotencyKey: "x", Items: []types.ItemInput{{ProductID: 2, Quantity: 1}, {ProductID: 1, Quantity: 3}}})
	require.NoError(t, err)
	b, err := FingerprintCreateOrder(types.CreateOrderInput{UserID: 1, IdempotencyKey: "y", Items: []types.ItemInput{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 1}}})
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := FingerprintCreateOrder(types.CreateOrderInput{UserID: 2, Items: []types.ItemInput{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 1}}})
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}
