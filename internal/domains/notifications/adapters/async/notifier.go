// Package async hands notification emails to the background task queue so
// the calling operation never waits for, or fails because of, delivery.
package async

import (
	"context"
	"errors"

	inventoryports "github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/ports"
	"github.com/Apurer/go-gin-commerce/internal/platform/tasks"
)

// ErrDropped is returned when the queue refused the task.
var ErrDropped = errors.New("notification dropped: task queue full or closed")

const (
	taskPaymentConfirmation = "email.payment_confirmation"
	taskLowStock            = "email.low_stock"
)

var _ inventoryports.LowStockNotifier = (*Notifier)(nil)

// Notifier submits deliveries to a tasks.Queue. Delivery errors are logged by the queue.
type Notifier struct {
	emails ports.Service
	queue  *tasks.Queue
}

func New(emails ports.Service, queue *tasks.Queue) *Notifier {
	return &Notifier{emails: emails, queue: queue}
}

// NotifyPaymentConfirmed queues the confirmation email.
func (n *Notifier) NotifyPaymentConfirmed(ctx context.Context, req domain.PaymentConfirmation) error {
	if !n.queue.Submit(ctx, taskPaymentConfirmation, func(ctx context.Context) error {
		return n.emails.SendPaymentConfirmation(ctx, req)
	}) {
		return ErrDropped
	}
	return nil
}

// NotifyLowStock queues the restock alert.
func (n *Notifier) NotifyLowStock(ctx context.Context, alert inventoryports.LowStockAlert) error {
	req := domain.LowStock{
		To:           alert.To,
		ProductID:    alert.ProductID,
		ProductName:  alert.ProductName,
		CurrentStock: alert.CurrentStock,
		Threshold:    alert.Threshold,
	}
	if !n.queue.Submit(ctx, taskLowStock, func(ctx context.Context) error {
		return n.emails.SendLowStock(ctx, req)
	}) {
		return ErrDropped
	}
	return nil
}
