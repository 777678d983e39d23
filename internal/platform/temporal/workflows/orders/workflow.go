// Package orders holds the durable order creation workflow and its registration.
package orders

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"

	checkouttypes "github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	orderactivities "github.com/Apurer/go-gin-commerce/internal/platform/temporal/activities/orders"
	"github.com/Apurer/go-gin-commerce/internal/platform/temporal/sequences"
)

const (
	OrderCreationWorkflowName = "orders.workflows.OrderCreation"
	OrderCreationTaskQueue    = "order-creation"
)

// OrderCreationWorkflowInput carries the command and the trace id of the
// request that started it. OrderID, when set, is the id claimed for the
// command's idempotency key.
type OrderCreationWorkflowInput struct {
	Command checkouttypes.CreateOrderInput
	TraceID string
	OrderID string
}

func OrderCreationWorkflow(ctx workflow.Context, input OrderCreationWorkflowInput) (*ordersdomain.Order, error) {
	workflow.GetLogger(ctx).Info("order creation workflow started", "userId", input.Command.UserID, "traceId", input.TraceID)
	return sequences.RunOrderCreationSequence(ctx, input.Command, input.OrderID)
}

// Registry is the subset of worker.Worker (and of the test environment) used for registration.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register binds the workflow and its activities under their stable names.
func Register(r Registry, acts *orderactivities.Activities) {
	r.RegisterWorkflowWithOptions(OrderCreationWorkflow, workflow.RegisterOptions{Name: OrderCreationWorkflowName})
	r.RegisterActivityWithOptions(acts.Prepare, activity.RegisterOptions{Name: orderactivities.PrepareActivityName})
	r.RegisterActivityWithOptions(acts.ReserveItem, activity.RegisterOptions{Name: orderactivities.ReserveItemActivityName})
	r.RegisterActivityWithOptions(acts.ReleaseItem, activity.RegisterOptions{Name: orderactivities.ReleaseItemActivityName})
	r.RegisterActivityWithOptions(acts.PersistOrder, activity.RegisterOptions{Name: orderactivities.PersistOrderActivityName})
	r.RegisterActivityWithOptions(acts.CancelOrder, activity.RegisterOptions{Name: orderactivities.CancelOrderActivityName})
	r.RegisterActivityWithOptions(acts.PublishCreated, activity.RegisterOptions{Name: orderactivities.PublishCreatedActivityName})
}
