package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application"
	checkouttypes "github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	orderworkflows "github.com/Apurer/go-gin-commerce/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.OrderWorkflows = (*TemporalOrderWorkflows)(nil)
	_ ports.OrderWorkflows = (*InlineOrderWorkflows)(nil)
)

// TemporalOrderWorkflows starts order creation workflows on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client      client.Client
	taskQueue   string
	idempotency ports.IdempotencyStore
	newID       func() string
}

type TemporalOption func(*TemporalOrderWorkflows)

// WithIdempotencyStore claims idempotency keys before a workflow starts, so a
// key reused with a different body is rejected and replays keep the order id.
func WithIdempotencyStore(store ports.IdempotencyStore) TemporalOption {
	return func(o *TemporalOrderWorkflows) { o.idempotency = store }
}

func NewTemporalOrderWorkflows(c client.Client, opts ...TemporalOption) *TemporalOrderWorkflows {
	o := &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.OrderCreationTaskQueue, newID: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// CreateOrder runs the durable saga and waits for its result. Requests with
// the same idempotency key share one workflow execution, running or closed.
func (o *TemporalOrderWorkflows) CreateOrder(ctx context.Context, input checkouttypes.CreateOrderInput) (*ordersdomain.Order, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildOrderCreationWorkflowID(input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	workflowInput := orderworkflows.OrderCreationWorkflowInput{Command: input, TraceID: traceComponent}
	keyed := strings.TrimSpace(input.IdempotencyKey) != ""
	if keyed {
		orderID, err := o.claimKey(ctx, input)
		if err != nil {
			return nil, err
		}
		workflowInput.OrderID = orderID
		options.WorkflowIDReusePolicy = enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE
	}

	run, err := o.client.ExecuteWorkflow(ctx, options, orderworkflows.OrderCreationWorkflowName, workflowInput)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && keyed {
			run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
		} else {
			return nil, fmt.Errorf("%w: start order workflow: %w", application.ErrUpstream, err)
		}
	}
	var order ordersdomain.Order
	if err := run.Get(ctx, &order); err != nil {
		return nil, fromWorkflowError(err)
	}
	return &order, nil
}

// claimKey returns the order id bound to the request's idempotency key,
// binding a fresh one on first use.
func (o *TemporalOrderWorkflows) claimKey(ctx context.Context, input checkouttypes.CreateOrderInput) (string, error) {
	if o.idempotency == nil {
		return "", nil
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	hash, err := application.FingerprintCreateOrder(input)
	if err != nil {
		return "", fmt.Errorf("%w: %w", application.ErrInvalidInput, err)
	}
	existing, err := o.idempotency.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: idempotency store: %w", application.ErrUpstream, err)
	}
	if existing != nil {
		if existing.RequestHash != hash {
			return "", fmt.Errorf("%w: key %q", application.ErrIdempotencyConflict, key)
		}
		return existing.OrderID, nil
	}
	claimed, err := o.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, OrderID: o.newID()})
	if errors.Is(err, ports.ErrIdempotencyConflict) {
		return "", fmt.Errorf("%w: key %q", application.ErrIdempotencyConflict, key)
	}
	if err != nil {
		return "", fmt.Errorf("%w: idempotency store: %w", application.ErrUpstream, err)
	}
	return claimed.OrderID, nil
}

// InlineOrderWorkflows runs the saga in-process, for tests and deployments without Temporal.
type InlineOrderWorkflows struct {
	service ports.Service
}

func NewInlineOrderWorkflows(service ports.Service) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{service: service}
}

func (o *InlineOrderWorkflows) CreateOrder(ctx context.Context, input checkouttypes.CreateOrderInput) (*ordersdomain.Order, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline order workflows not configured")
	}
	return o.service.CreateOrder(ctx, input)
}

// fromWorkflowError restores the checkout error class carried in the
// application error type set by the activities.
func fromWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		if classified := application.FromCode(appErr.Type(), appErr.Message()); classified != nil {
			return classified
		}
	}
	return fmt.Errorf("%w: order workflow: %w", application.ErrUpstream, err)
}

func buildOrderCreationWorkflowID(input checkouttypes.CreateOrderInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("order-creation-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("order-creation-%d-%s", input.UserID, traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
