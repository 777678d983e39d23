package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	notificationsdomain "github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/platform/cache"
	"github.com/Apurer/go-gin-commerce/internal/platform/locks"
	"github.com/Apurer/go-gin-commerce/internal/platform/saga"
)

// AmountTolerance is the largest accepted gap between the paid sum and the order total.
var AmountTolerance = decimal.RequireFromString("0.01")

// ConfirmationLockKey names the lock that serialises confirmations of one order.
func ConfirmationLockKey(orderID string) string {
	return "order-confirmation:" + orderID
}

type confirmation struct {
	orderID  string
	methods  []paymentsdomain.Method
	amounts  []float64
	provided decimal.Decimal
}

// ConfirmPayment records the payments of an order and marks it PAID. At most
// one confirmation of an order runs at a time; a second one waits for the
// lock and then observes PAID.
func (s *Service) ConfirmPayment(ctx context.Context, input types.ConfirmPaymentInput) (*types.ConfirmationResult, error) {
	req, err := parseConfirmation(input)
	if err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	unlock, err := s.locker.Lock(lockCtx, ConfirmationLockKey(req.orderID))
	cancel()
	if err != nil {
		if errors.Is(err, locks.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: order %s", ErrConfirmationInProgress, req.orderID)
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer unlock()

	order, err := s.orders.GetOrder(ctx, req.orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := order.Payable(); err != nil {
		return nil, mapError(err)
	}
	total, err := s.orderTotal(ctx, order)
	if err != nil {
		return nil, err
	}
	if req.provided.Sub(total).Abs().GreaterThan(AmountTolerance) {
		return nil, &AmountMismatchError{Expected: total.InexactFloat64(), Provided: req.provided.InexactFloat64()}
	}

	email := s.lookupEmail(ctx, order.UserID)

	payments := make([]*paymentsdomain.Payment, len(req.methods))
	assigned := make(map[string]struct{}, len(req.methods))
	for i := range req.methods {
		p, err := paymentsdomain.NewPayment(s.newID(), order.ID, req.methods[i], req.amounts[i],
			paymentsdomain.SourceConfirmation, paymentsdomain.ConfirmationKey(order.ID, order.Version, i))
		if err != nil {
			return nil, mapError(err)
		}
		payments[i] = p
		assigned[p.ID] = struct{}{}
	}

	var (
		recorded []*paymentsdomain.Payment
		paid     *ordersdomain.Order
	)
	err = saga.New(confirmationSaga, s.logger).WithMetrics(s.sagaMetrics).Run(ctx,
		saga.Step{
			Name: "record-payments",
			Execute: func(ctx context.Context) error {
				rows, err := s.payments.Record(ctx, payments)
				if err != nil {
					return mapError(err)
				}
				if err := matchReplayed(rows, payments); err != nil {
					if voidErr := s.payments.Void(ctx, ownRows(rows, assigned)); voidErr != nil {
						s.logger.LogAttrs(ctx, slog.LevelError, "failed to void payments of a diverged confirmation",
							slog.String("order.id", order.ID), slog.String("error", voidErr.Error()))
					}
					return err
				}
				recorded = rows
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.payments.Void(ctx, ownRows(recorded, assigned))
			},
		},
		saga.Step{
			Name: "mark-order-paid",
			Execute: func(ctx context.Context) error {
				updated, err := s.markPaid(ctx, order)
				paid = updated
				return err
			},
		},
	)
	if err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, s.cache, s.logger, cache.OrderKey(order.ID))
	s.notifyConfirmed(ctx, email, paid, recorded)

	return &types.ConfirmationResult{
		Order:    paid,
		Payments: recorded,
		Amount:   req.provided.Round(2).InexactFloat64(),
	}, nil
}

func parseConfirmation(input types.ConfirmPaymentInput) (*confirmation, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: orderId is required", ErrInvalidInput)
	}
	if len(input.Payments) == 0 {
		return nil, fmt.Errorf("%w: at least one payment is required", ErrInvalidInput)
	}
	req := &confirmation{
		orderID: orderID,
		methods: make([]paymentsdomain.Method, 0, len(input.Payments)),
		amounts: make([]float64, 0, len(input.Payments)),
	}
	for i, p := range input.Payments {
		method, err := paymentsdomain.ParseMethod(p.Method)
		if err != nil {
			return nil, fmt.Errorf("%w: payments[%d].method %q", ErrInvalidMethod, i, p.Method)
		}
		if !paymentsdomain.ValidAmount(p.Amount) {
			return nil, fmt.Errorf("%w: payments[%d].amount must be greater than zero", ErrInvalidInput, i)
		}
		req.methods = append(req.methods, method)
		req.amounts = append(req.amounts, p.Amount)
		req.provided = req.provided.Add(decimal.NewFromFloat(p.Amount))
	}
	return req, nil
}

func (s *Service) orderTotal(ctx context.Context, order *ordersdomain.Order) (decimal.Decimal, error) {
	if math.IsNaN(order.Total) || math.IsInf(order.Total, 0) || order.Total <= 0 {
		s.logger.LogAttrs(ctx, slog.LevelError, "order has an invalid total",
			slog.String("order.id", order.ID), slog.Float64("order.total", order.Total))
		return decimal.Zero, fmt.Errorf("%w: order %s", ErrInvalidOrderTotal, order.ID)
	}
	return decimal.NewFromFloat(order.Total), nil
}

// markPaid flips the order with a version check. Losing the race to another
// writer is reported as the state that writer left behind.
func (s *Service) markPaid(ctx context.Context, order *ordersdomain.Order) (*ordersdomain.Order, error) {
	updated, err := s.orders.UpdateStatus(ctx, order.ID, ordersdomain.StatusPaid, order.Version)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ordersports.ErrVersionConflict) {
		return nil, mapError(err)
	}
	current, getErr := s.orders.GetOrder(ctx, order.ID)
	if getErr != nil {
		return nil, mapError(err)
	}
	if payable := current.Payable(); payable != nil {
		return nil, mapError(payable)
	}
	return nil, mapError(err)
}

func (s *Service) lookupEmail(ctx context.Context, userID int64) string {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "user lookup failed, confirmation email skipped",
			slog.Int64("user.id", userID), slog.String("error", err.Error()))
		return ""
	}
	return strings.TrimSpace(user.Email)
}

func (s *Service) notifyConfirmed(ctx context.Context, email string, order *ordersdomain.Order, payments []*paymentsdomain.Payment) {
	if s.notifier == nil || email == "" || order == nil {
		return
	}
	lines := make([]notificationsdomain.PaymentLine, 0, len(payments))
	for _, p := range payments {
		lines = append(lines, notificationsdomain.PaymentLine{Method: string(p.Method), Amount: p.Amount})
	}
	err := s.notifier.NotifyPaymentConfirmed(ctx, notificationsdomain.PaymentConfirmation{
		To:       email,
		OrderID:  order.ID,
		Amount:   order.Total,
		Payments: lines,
	})
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "payment confirmation email not queued",
			slog.String("order.id", order.ID), slog.String("error", err.Error()))
	}
}

// ownRows keeps the rows written by this confirmation. Rows replayed from an
// earlier attempt with the same keys belong to that attempt.
func ownRows(rows []*paymentsdomain.Payment, assigned map[string]struct{}) []string {
	ids := make([]string, 0, len(rows))
	for _, p := range rows {
		if _, ok := assigned[p.ID]; ok {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// matchReplayed rejects a confirmation whose keys hit rows that an earlier
// attempt wrote with a different method or amount.
func matchReplayed(rows, requested []*paymentsdomain.Payment) error {
	if len(rows) != len(requested) {
		return fmt.Errorf("%w: ledger returned %d rows for %d payments", ErrPaymentsDiverged, len(rows), len(requested))
	}
	for i, row := range rows {
		want := requested[i]
		if row.ID == want.ID {
			continue
		}
		if row.Method != want.Method || !cents(row.Amount).Equal(cents(want.Amount)) {
			return fmt.Errorf("%w: payments[%d] already recorded as %s %s", ErrPaymentsDiverged, i,
				row.Method, cents(row.Amount).StringFixed(2))
		}
	}
	return nil
}

func cents(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(2)
}
