package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	checkouttypes "github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	orderactivities "github.com/Apurer/go-gin-commerce/internal/platform/temporal/activities/orders"
)

// RunOrderCreationSequence prepares the order, reserves each product,
// persists the order and publishes order.created. When a step fails the
// completed ones are compensated in reverse order on a disconnected context,
// so cancelling the workflow still releases stock. A non-empty orderID
// replaces the id drawn by Prepare.
func RunOrderCreationSequence(ctx workflow.Context, input checkouttypes.CreateOrderInput, orderID string) (*ordersdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order creation sequence started", "userId", input.UserID)
	stepOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	compensationOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	actx := workflow.WithActivityOptions(ctx, stepOptions)

	var prepared checkouttypes.PreparedOrder
	if err := workflow.ExecuteActivity(actx, orderactivities.PrepareActivityName, input).Get(ctx, &prepared); err != nil {
		logger.Warn("order creation sequence rejected", "userId", input.UserID, "error", err)
		return nil, err
	}
	if orderID != "" {
		prepared.OrderID = orderID
	}

	var compensations []func(workflow.Context) error
	fail := func(step string, err error) (*ordersdomain.Order, error) {
		logger.Warn("order creation sequence step failed, compensating", "orderId", prepared.OrderID, "step", step, "error", err)
		dctx, _ := workflow.NewDisconnectedContext(ctx)
		dctx = workflow.WithActivityOptions(dctx, compensationOptions)
		for i := len(compensations) - 1; i >= 0; i-- {
			if cerr := compensations[i](dctx); cerr != nil {
				logger.Error("order creation compensation failed", "orderId", prepared.OrderID, "error", cerr)
			}
		}
		return nil, err
	}

	for _, r := range prepared.Reservations {
		r := r
		if err := workflow.ExecuteActivity(actx, orderactivities.ReserveItemActivityName, r).Get(ctx, nil); err != nil {
			return fail("reserve", err)
		}
		compensations = append(compensations, func(c workflow.Context) error {
			return workflow.ExecuteActivity(c, orderactivities.ReleaseItemActivityName, r).Get(c, nil)
		})
	}

	var order ordersdomain.Order
	if err := workflow.ExecuteActivity(actx, orderactivities.PersistOrderActivityName, &prepared).Get(ctx, &order); err != nil {
		return fail("persist", err)
	}
	compensations = append(compensations, func(c workflow.Context) error {
		return workflow.ExecuteActivity(c, orderactivities.CancelOrderActivityName, prepared.OrderID).Get(c, nil)
	})

	if err := workflow.ExecuteActivity(actx, orderactivities.PublishCreatedActivityName, &order).Get(ctx, nil); err != nil {
		return fail("publish", err)
	}
	logger.Info("order creation sequence completed", "orderId", order.ID, "total", order.Total)
	return &order, nil
}
