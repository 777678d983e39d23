package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	checkoutapp "github.com/Apurer/go-gin-commerce/internal/domains/checkout/application"
	checkouttypes "github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
)

const (
	PrepareActivityName        = "orders.activities.Prepare"
	ReserveItemActivityName    = "orders.activities.ReserveItem"
	ReleaseItemActivityName    = "orders.activities.ReleaseItem"
	PersistOrderActivityName   = "orders.activities.PersistOrder"
	CancelOrderActivityName    = "orders.activities.CancelOrder"
	PublishCreatedActivityName = "orders.activities.PublishCreated"
)

// Steps are the individual order creation steps the activities delegate to.
// The checkout application service implements them.
type Steps interface {
	Prepare(ctx context.Context, input checkouttypes.CreateOrderInput) (*checkouttypes.PreparedOrder, error)
	ReserveItem(ctx context.Context, r checkouttypes.Reservation) error
	ReleaseItem(ctx context.Context, r checkouttypes.Reservation) error
	PersistOrder(ctx context.Context, prepared *checkouttypes.PreparedOrder) (*ordersdomain.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	PublishCreated(ctx context.Context, order *ordersdomain.Order) error
}

// Activities groups the order creation activities.
type Activities struct {
	steps Steps
}

func NewActivities(steps Steps) *Activities {
	return &Activities{steps: steps}
}

func (a *Activities) Prepare(ctx context.Context, input checkouttypes.CreateOrderInput) (*checkouttypes.PreparedOrder, error) {
	logger := activity.GetLogger(ctx)
	if err := a.ready(); err != nil {
		return nil, err
	}
	logger.Info("Prepare activity started", "userId", input.UserID, "items", len(input.Items))
	prepared, err := a.steps.Prepare(ctx, input)
	if err != nil {
		logger.Warn("Prepare activity failed", "userId", input.UserID, "error", err)
		return nil, asApplicationError(err)
	}
	logger.Info("Prepare activity completed", "orderId", prepared.OrderID, "total", prepared.Total)
	return prepared, nil
}

// ReserveItem takes stock once per workflow step. A retry after a reservation
// whose completion was lost skips the second decrement.
func (a *Activities) ReserveItem(ctx context.Context, r checkouttypes.Reservation) error {
	logger := activity.GetLogger(ctx)
	if err := a.ready(); err != nil {
		return err
	}
	var hb stepHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Completed {
		logger.Info("ReserveItem already completed in prior attempt; skipping", "productId", r.ProductID)
		return nil
	}
	if err := a.steps.ReserveItem(ctx, r); err != nil {
		logger.Warn("ReserveItem activity failed", "productId", r.ProductID, "quantity", r.Quantity, "error", err)
		return asApplicationError(err)
	}
	activity.RecordHeartbeat(ctx, stepHeartbeat{Completed: true})
	logger.Info("ReserveItem activity completed", "productId", r.ProductID, "quantity", r.Quantity)
	return nil
}

func (a *Activities) ReleaseItem(ctx context.Context, r checkouttypes.Reservation) error {
	logger := activity.GetLogger(ctx)
	if err := a.ready(); err != nil {
		return err
	}
	var hb stepHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Completed {
		return nil
	}
	if err := a.steps.ReleaseItem(ctx, r); err != nil {
		logger.Error("ReleaseItem activity failed", "productId", r.ProductID, "quantity", r.Quantity, "error", err)
		return err
	}
	activity.RecordHeartbeat(ctx, stepHeartbeat{Completed: true})
	logger.Info("ReleaseItem activity completed", "productId", r.ProductID, "quantity", r.Quantity)
	return nil
}

func (a *Activities) PersistOrder(ctx context.Context, prepared *checkouttypes.PreparedOrder) (*ordersdomain.Order, error) {
	logger := activity.GetLogger(ctx)
	if err := a.ready(); err != nil {
		return nil, err
	}
	if prepared == nil {
		return nil, temporal.NewNonRetryableApplicationError("prepared order is required", checkoutapp.Code(checkoutapp.ErrInvalidInput), nil)
	}
	order, err := a.steps.PersistOrder(ctx, prepared)
	if err != nil {
		logger.Error("PersistOrder activity failed", "orderId", prepared.OrderID, "error", err)
		return nil, asApplicationError(err)
	}
	logger.Info("PersistOrder activity completed", "orderId", order.ID, "version", order.Version)
	return order, nil
}

func (a *Activities) CancelOrder(ctx context.Context, orderID string) error {
	logger := activity.GetLogger(ctx)
	if err := a.ready(); err != nil {
		return err
	}
	if err := a.steps.CancelOrder(ctx, orderID); err != nil {
		logger.Error("CancelOrder activity failed", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("CancelOrder activity completed", "orderId", orderID)
	return nil
}

func (a *Activities) PublishCreated(ctx context.Context, order *ordersdomain.Order) error {
	logger := activity.GetLogger(ctx)
	if err := a.ready(); err != nil {
		return err
	}
	if order == nil {
		return temporal.NewNonRetryableApplicationError("order is required", checkoutapp.Code(checkoutapp.ErrInvalidInput), nil)
	}
	if err := a.steps.PublishCreated(ctx, order); err != nil {
		logger.Error("PublishCreated activity failed", "orderId", order.ID, "error", err)
		return asApplicationError(err)
	}
	logger.Info("PublishCreated activity completed", "orderId", order.ID)
	return nil
}

func (a *Activities) ready() error {
	if a == nil || a.steps == nil {
		return errors.New("order activities not initialized")
	}
	return nil
}

// asApplicationError tags business failures with their code and stops
// retries for them; infrastructure failures keep the retry policy.
func asApplicationError(err error) error {
	if !checkoutapp.IsBusinessError(err) {
		return err
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), checkoutapp.Code(err), err)
}

type stepHeartbeat struct {
	Completed bool
}
