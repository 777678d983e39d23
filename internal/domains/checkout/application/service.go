package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	inventorydomain "github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/platform/cache"
	"github.com/Apurer/go-gin-commerce/internal/platform/events"
	"github.com/Apurer/go-gin-commerce/internal/platform/locks"
	"github.com/Apurer/go-gin-commerce/internal/platform/saga"
)

var _ ports.Service = (*Service)(nil)

const (
	creationSaga     = "order-creation"
	confirmationSaga = "payment-confirmation"
)

// Dependencies are the collaborators every checkout service needs.
type Dependencies struct {
	Users     ports.UserDirectory
	Inventory ports.Inventory
	Orders    ports.OrderLedger
	Payments  ports.PaymentLedger
	Publisher events.Publisher
}

// Service runs the order creation and payment confirmation sagas.
type Service struct {
	users         ports.UserDirectory
	inventory     ports.Inventory
	orders        ports.OrderLedger
	payments      ports.PaymentLedger
	publisher     events.Publisher
	locker        locks.Locker
	cache         cache.Cache
	notifier      ports.ConfirmationNotifier
	idempotency   ports.IdempotencyStore
	logger        *slog.Logger
	sagaMetrics   *saga.Metrics
	defaultMethod paymentsdomain.Method
	lockTimeout   time.Duration
	now           func() time.Time
	newID         func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocker serialises confirmations of one order across processes.
func WithLocker(locker locks.Locker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithCache enables invalidation of order:<id> after a confirmation.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithNotifier(n ports.ConfirmationNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithIdempotencyStore lets CreateOrder replay requests carrying an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) { s.idempotency = store }
}

func WithSagaMetrics(m *saga.Metrics) Option {
	return func(s *Service) { s.sagaMetrics = m }
}

// WithDefaultMethod sets the method announced in order.created events.
func WithDefaultMethod(method paymentsdomain.Method) Option {
	return func(s *Service) {
		if method != "" {
			s.defaultMethod = method
		}
	}
}

// WithLockTimeout bounds the wait for the per-order confirmation lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the checkout sagas. Without WithLocker confirmations are
// serialised in-process only.
func NewService(deps Dependencies, opts ...Option) *Service {
	s := &Service{
		users:         deps.Users,
		inventory:     deps.Inventory,
		orders:        deps.Orders,
		payments:      deps.Payments,
		publisher:     deps.Publisher,
		locker:        locks.NewMemory(),
		logger:        slog.Default(),
		defaultMethod: paymentsdomain.MethodCard,
		lockTimeout:   5 * time.Second,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder validates, reserves stock, persists the order and announces it.
// Any failure after the first reservation releases what was reserved.
func (s *Service) CreateOrder(ctx context.Context, input types.CreateOrderInput) (*ordersdomain.Order, error) {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" && s.idempotency != nil {
		return s.createIdempotent(ctx, input, key)
	}
	prepared, err := s.Prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, prepared)
}

// Execute runs the side effects of a prepared order as one saga.
func (s *Service) Execute(ctx context.Context, prepared *types.PreparedOrder) (*ordersdomain.Order, error) {
	if prepared == nil {
		return nil, fmt.Errorf("%w: prepared order is required", ErrInvalidInput)
	}
	var created *ordersdomain.Order
	steps := make([]saga.Step, 0, len(prepared.Reservations)+2)
	for _, r := range prepared.Reservations {
		r := r
		steps = append(steps, saga.Step{
			Name:       "reserve-product-" + strconv.FormatInt(r.ProductID, 10),
			Execute:    func(ctx context.Context) error { return s.ReserveItem(ctx, r) },
			Compensate: func(ctx context.Context) error { return s.ReleaseItem(ctx, r) },
		})
	}
	steps = append(steps,
		saga.Step{
			Name: "persist-order",
			Execute: func(ctx context.Context) error {
				order, err := s.PersistOrder(ctx, prepared)
				created = order
				return err
			},
			Compensate: func(ctx context.Context) error { return s.CancelOrder(ctx, prepared.OrderID) },
		},
		saga.Step{
			Name:    "publish-order-created",
			Execute: func(ctx context.Context) error { return s.PublishCreated(ctx, created) },
		},
	)
	if err := saga.New(creationSaga, s.logger).WithMetrics(s.sagaMetrics).Run(ctx, steps...); err != nil {
		return nil, err
	}
	return created, nil
}

// Prepare validates the request and prices it against the current catalog.
// Quantities of repeated products are summed and checked against the stock
// read, so an obviously unsatisfiable order fails before any reservation.
func (s *Service) Prepare(ctx context.Context, input types.CreateOrderInput) (*types.PreparedOrder, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, input.UserID); err != nil {
		return nil, mapError(err)
	}

	products := make(map[int64]*inventorydomain.Product, len(input.Items))
	requested := make(map[int64]int64, len(input.Items))
	seen := make([]int64, 0, len(input.Items))
	items := make([]ordersdomain.Item, 0, len(input.Items))
	for _, item := range input.Items {
		product, ok := products[item.ProductID]
		if !ok {
			loaded, err := s.inventory.GetProduct(ctx, item.ProductID)
			if err != nil {
				return nil, mapError(err)
			}
			product = loaded
			products[item.ProductID] = product
			seen = append(seen, item.ProductID)
		}
		subtotal := decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(item.Quantity)).Round(2)
		items = append(items, ordersdomain.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  subtotal.InexactFloat64(),
		})
		requested[item.ProductID] += item.Quantity
	}

	reservations := make([]types.Reservation, 0, len(seen))
	for _, id := range seen {
		if stock := products[id].Stock; stock < requested[id] {
			return nil, fmt.Errorf("%w: product %d has %d units, %d requested", ErrOutOfStock, id, stock, requested[id])
		}
		reservations = append(reservations, types.Reservation{ProductID: id, Quantity: requested[id]})
	}

	draft, err := ordersdomain.NewOrder(s.newID(), input.UserID, items)
	if err != nil {
		return nil, mapError(err)
	}
	return &types.PreparedOrder{
		OrderID:      draft.ID,
		UserID:       draft.UserID,
		Items:        draft.Items,
		Total:        draft.Total,
		Reservations: reservations,
	}, nil
}

func (s *Service) ReserveItem(ctx context.Context, r types.Reservation) error {
	if _, err := s.inventory.Reserve(ctx, r.ProductID, r.Quantity); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Service) ReleaseItem(ctx context.Context, r types.Reservation) error {
	if _, err := s.inventory.Release(ctx, r.ProductID, r.Quantity); err != nil {
		return mapError(err)
	}
	return nil
}

// PersistOrder stores the prepared order as PENDING. Storing the same order
// twice returns the stored one, so retried activities are harmless.
func (s *Service) PersistOrder(ctx context.Context, prepared *types.PreparedOrder) (*ordersdomain.Order, error) {
	order, err := ordersdomain.NewOrder(prepared.OrderID, prepared.UserID, prepared.Items)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.orders.CreateOrder(ctx, order)
	if errors.Is(err, ordersports.ErrAlreadyExists) {
		saved, err = s.orders.GetOrder(ctx, prepared.OrderID)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// CancelOrder marks a persisted order CANCELLED. Cancelling twice is not an error.
func (s *Service) CancelOrder(ctx context.Context, orderID string) error {
	_, err := s.orders.UpdateStatus(ctx, orderID, ordersdomain.StatusCancelled, 0)
	if err != nil && !errors.Is(err, ordersdomain.ErrOrderCancelled) {
		return mapError(err)
	}
	return nil
}

// PublishCreated announces the order with a pending payment intent.
func (s *Service) PublishCreated(ctx context.Context, order *ordersdomain.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order is required", ErrInvalidInput)
	}
	event := ordersdomain.NewOrderCreatedEvent(s.newID(), order, string(s.defaultMethod), s.now().UTC())
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode order.created: %w", err)
	}
	if _, err := s.publisher.Publish(ctx, events.TopicOrderCreated, payload); err != nil {
		return fmt.Errorf("%w: publish order.created: %w", ErrUpstream, err)
	}
	return nil
}

func validateCreateInput(input types.CreateOrderInput) error {
	if input.UserID <= 0 {
		return fmt.Errorf("%w: userId must be greater than zero", ErrInvalidInput)
	}
	if len(input.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}
	for i, item := range input.Items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: items[%d].productId must be greater than zero", ErrInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be greater than zero", ErrInvalidInput, i)
		}
	}
	return nil
}
