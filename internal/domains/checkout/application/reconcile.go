package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/platform/cache"
)

const reconcileBatch = 500

// Reconcile finds unpaid orders older than olderThan whose confirmation
// payments for the current version already cover the total, and marks them
// PAID. It repairs confirmations interrupted between recording the payments
// and flipping the status.
func (s *Service) Reconcile(ctx context.Context, olderThan time.Duration) (*types.ReconcileReport, error) {
	report := &types.ReconcileReport{Repaired: []string{}}
	cutoff := s.now().UTC().Add(-olderThan)
	for _, status := range []ordersdomain.Status{ordersdomain.StatusPending, ordersdomain.StatusFailed} {
		orders, err := s.orders.ListOrders(ctx, ordersports.Filter{Status: status, CreatedBefore: cutoff, Limit: reconcileBatch})
		if err != nil {
			return report, mapError(err)
		}
		for _, order := range orders {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Checked++
			repaired, err := s.reconcileOrder(ctx, order)
			if err != nil {
				report.Failed++
				s.logger.LogAttrs(ctx, slog.LevelWarn, "order reconciliation failed",
					slog.String("order.id", order.ID), slog.String("error", err.Error()))
				continue
			}
			if repaired {
				report.Repaired = append(report.Repaired, order.ID)
			}
		}
	}
	return report, nil
}

func (s *Service) reconcileOrder(ctx context.Context, order *ordersdomain.Order) (bool, error) {
	payments, err := s.payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return false, mapError(err)
	}
	paid := confirmedSum(payments, order.ID, order.Version)
	if paid.IsZero() || paid.Sub(decimal.NewFromFloat(order.Total)).Abs().GreaterThan(AmountTolerance) {
		return false, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	unlock, err := s.locker.Lock(lockCtx, ConfirmationLockKey(order.ID))
	cancel()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrConfirmationInProgress, err)
	}
	defer unlock()
	if _, err := s.markPaid(ctx, order); err != nil {
		return false, err
	}
	cache.Invalidate(ctx, s.cache, s.logger, cache.OrderKey(order.ID))
	s.logger.LogAttrs(ctx, slog.LevelInfo, "order reconciled to PAID",
		slog.String("order.id", order.ID), slog.Float64("order.total", order.Total))
	return true, nil
}

// confirmedSum adds the confirmation rows recorded against the given version.
// Payment intents from order events are not proof of payment.
func confirmedSum(payments []*paymentsdomain.Payment, orderID string, version int64) decimal.Decimal {
	prefix := strings.TrimSuffix(paymentsdomain.ConfirmationKey(orderID, version, 0), "0")
	sum := decimal.Zero
	for _, p := range payments {
		if p.Source != paymentsdomain.SourceConfirmation || !strings.HasPrefix(p.IdempotencyKey, prefix) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(p.Amount))
	}
	return sum
}
