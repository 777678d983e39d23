// Package events defines the at-least-once event channel between the order
// saga and its asynchronous consumers.
package events

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TopicOrderCreated carries one message per persisted order.
const TopicOrderCreated = "order.created"

// ErrClosed is returned when publishing to or subscribing on a closed channel.
var ErrClosed = errors.New("event channel closed")

// Message is a delivered event. Attempt starts at 1 and grows on redelivery.
type Message struct {
	ID      string
	Topic   string
	Payload []byte
	Headers map[string]string
	Attempt int
}

// Handler processes one message. Returning an error asks for redelivery.
type Handler func(ctx context.Context, msg Message) error

// Publisher appends a message to a topic and returns its id.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// Subscriber registers a consumer group on topic. Only messages published
// after the group is first created are delivered. Subscribe returns once the
// group is registered; consumption continues until ctx ends or the channel closes.
type Subscriber interface {
	Subscribe(ctx context.Context, topic, group string, h Handler) error
}

// InjectTrace returns headers carrying the span context of ctx.
func InjectTrace(ctx context.Context) map[string]string {
	headers := map[string]string{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))
	return headers
}

// ExtractTrace restores the publisher's span context from headers.
func ExtractTrace(ctx context.Context, headers map[string]string) context.Context {
	if len(headers) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(headers))
}
