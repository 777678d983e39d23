package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
)

func TestReconcile_RepairsInterruptedConfirmations(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service()

	interrupted := h.pendingOrder(t, svc)
	unpaid := h.pendingOrder(t, svc)

	// payments written, status flip lost
	confirmation, err := paymentsdomain.NewPayment(uuid.NewString(), interrupted.ID, paymentsdomain.MethodPIX, 20,
		paymentsdomain.SourceConfirmation, paymentsdomain.ConfirmationKey(interrupted.ID, interrupted.Version, 0))
	require.NoError(t, err)
	// an intent alone does not prove payment
	intent, err := paymentsdomain.NewPayment(uuid.NewString(), unpaid.ID, paymentsdomain.MethodCard, 20,
		paymentsdomain.SourceOrderEvent, paymentsdomain.OrderEventKey(unpaid.ID))
	require.NoError(t, err)
	_, err = h.payments.Record(ctx, []*paymentsdomain.Payment{confirmation, intent})
	require.NoError(t, err)

	later := h.service(WithClock(func() time.Time { return time.Now().Add(time.Hour) }))
	report, err := later.Reconcile(ctx, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, report.Checked)
	require.Equal(t, []string{interrupted.ID}, report.Repaired)
	require.Zero(t, report.Failed)

	repaired, err := h.orders.GetOrder(ctx, interrupted.ID)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPaid, repaired.Status)
	still, err := h.orders.GetOrder(ctx, unpaid.ID)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPending, still.Status)
}

func TestReconcile_SkipsRecentOrders(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	h.pendingOrder(t, svc)

	report, err := svc.Reconcile(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Zero(t, report.Checked)
	require.Empty(t, report.Repaired)
}

func TestConfirmedSum_CountsOnlyCurrentVersion(t *testing.T) {
	rows := []*paymentsdomain.Payment{
		{Amount: 5, Source: paymentsdomain.SourceConfirmation, IdempotencyKey: paymentsdomain.ConfirmationKey("o", 2, 0)},
		{Amount: 7, Source: paymentsdomain.SourceConfirmation, IdempotencyKey: paymentsdomain.ConfirmationKey("o", 2, 1)},
		{Amount: 11, Source: paymentsdomain.SourceConfirmation, IdempotencyKey: paymentsdomain.ConfirmationKey("o", 1, 0)},
		{Amount: 13, Source: paymentsdomain.SourceOrderEvent, IdempotencyKey: paymentsdomain.OrderEventKey("o")},
	}
	require.Equal(t, "12", confirmedSum(rows, "o", 2).String())
}
