package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/payments/ports"
	"github.com/Apurer/go-gin-commerce/internal/platform/events"
)

// RecorderGroup is the consumer group of the payment recorder.
const RecorderGroup = "payment-service-group"

// Recorder writes a PENDING payment intent for every order.created event.
// Redelivered events hit the same idempotency key and write nothing new.
type Recorder struct {
	payments      ports.Service
	subscriber    events.Subscriber
	defaultMethod paymentsdomain.Method
	logger        *slog.Logger
}

type RecorderOption func(*Recorder)

func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDefaultMethod sets the method used when an event carries no payment intent.
func WithDefaultMethod(method paymentsdomain.Method) RecorderOption {
	return func(r *Recorder) {
		r.defaultMethod = method
	}
}

func NewRecorder(payments ports.Service, subscriber events.Subscriber, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		payments:      payments,
		subscriber:    subscriber,
		defaultMethod: paymentsdomain.MethodCard,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Start subscribes from now on; consumption runs until ctx ends.
func (r *Recorder) Start(ctx context.Context) error {
	return r.subscriber.Subscribe(ctx, events.TopicOrderCreated, RecorderGroup, r.Handle)
}

// Handle records one event. Malformed events are logged and acknowledged;
// ledger failures are returned so the channel redelivers.
func (r *Recorder) Handle(ctx context.Context, msg events.Message) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "dropping undecodable order.created event",
			slog.String("event.message_id", msg.ID), slog.String("error", err.Error()))
		return nil
	}
	if event.Order == nil && event.Payment == nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "dropping order.created event without order or payment",
			slog.String("event.message_id", msg.ID), slog.String("event.id", event.EventID))
		return nil
	}

	orderID, amount, rawMethod := intentOf(event)
	method, err := paymentsdomain.ParseMethod(rawMethod)
	if err != nil {
		method = r.defaultMethod
	}
	payment, err := paymentsdomain.NewPayment("", orderID, method, amount, paymentsdomain.SourceOrderEvent, paymentsdomain.OrderEventKey(orderID))
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "dropping invalid order.created event",
			slog.String("event.message_id", msg.ID), slog.String("order.id", orderID), slog.String("error", err.Error()))
		return nil
	}
	recorded, err := r.payments.Record(ctx, []*paymentsdomain.Payment{payment})
	if err != nil {
		return err
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "payment intent recorded",
		slog.String("order.id", orderID), slog.String("payment.id", recorded[0].ID),
		slog.Float64("payment.amount", amount), slog.Int("event.attempt", msg.Attempt))
	return nil
}

// intentOf prefers the order id of the order section and the amount of the
// payment section, falling back to the other section when one is missing.
func intentOf(event domain.OrderCreatedEvent) (orderID string, amount float64, method string) {
	if p := event.Payment; p != nil {
		orderID = p.OrderID
		amount = p.Amount
		method = p.Method
	}
	if o := event.Order; o != nil {
		if strings.TrimSpace(o.ID) != "" {
			orderID = o.ID
		}
		if amount == 0 {
			amount = o.Total
		}
	}
	return orderID, amount, method
}
