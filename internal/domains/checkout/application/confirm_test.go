package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	orderscache "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/cache"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	paymentsdomain "github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	usersdomain "github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
	"github.com/Apurer/go-gin-commerce/internal/platform/cache"
	"github.com/Apurer/go-gin-commerce/internal/platform/locks"
	"github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

func pix(amount float64) types.PaymentInput { return types.PaymentInput{Method: "PIX", Amount: amount} }

func TestConfirmPayment_MarksOrderPaid(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service()
	order := h.pendingOrder(t, svc)
	require.NoError(t, h.cache.Set(ctx, cache.OrderKey(order.ID), []byte(`{"status":"PENDING"}`), cache.OrderTTL))

	result, err := svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(20)}})
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPaid, result.Order.Status)
	require.Equal(t, order.Version+1, result.Order.Version)
	require.Equal(t, 20.0, result.Amount)
	require.Len(t, result.Payments, 1)
	require.Equal(t, paymentsdomain.SourceConfirmation, result.Payments[0].Source)
	require.Equal(t, paymentsdomain.ConfirmationKey(order.ID, order.Version, 0), result.Payments[0].IdempotencyKey)

	_, cached, err := h.cache.Get(ctx, cache.OrderKey(order.ID))
	require.NoError(t, err)
	require.False(t, cached)

	sent := h.notifier.all()
	require.Len(t, sent, 1)
	require.Equal(t, "buyer1@example.com", sent[0].To)
	require.Equal(t, order.ID, sent[0].OrderID)
	require.Equal(t, 20.0, sent[0].Amount)
	require.Equal(t, "PIX", sent[0].Payments[0].Method)
}

func TestConfirmPayment_SplitPaymentsWithinTolerance(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	order := h.pendingOrder(t, svc)

	result, err := svc.ConfirmPayment(context.Background(), types.ConfirmPaymentInput{
		OrderID:  order.ID,
		Payments: []types.PaymentInput{pix(9.99), {Method: "Cartão", Amount: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, 19.99, result.Amount)
	require.Len(t, result.Payments, 2)
	require.Equal(t, paymentsdomain.MethodCard, result.Payments[1].Method)
}

func TestConfirmPayment_AmountMismatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service()
	order := h.pendingOrder(t, svc)

	_, err := svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(19.98)}})
	var mismatch *AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 20.0, mismatch.Expected)
	require.Equal(t, 19.98, mismatch.Provided)
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, "AMOUNT_MISMATCH", Code(err))

	current, err := h.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPending, current.Status)
	rows, err := h.payments.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestConfirmPayment_Rejections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service()
	paid := h.pendingOrder(t, svc)
	_, err := svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: paid.ID, Payments: []types.PaymentInput{pix(20)}})
	require.NoError(t, err)

	cancelled := h.pendingOrder(t, svc)
	require.NoError(t, svc.CancelOrder(ctx, cancelled.ID))

	cases := []struct {
		name  string
		input types.ConfirmPaymentInput
		want  error
	}{
		{"missing order id", types.ConfirmPaymentInput{Payments: []types.PaymentInput{pix(20)}}, ErrInvalidInput},
		{"no payments", types.ConfirmPaymentInput{OrderID: paid.ID}, ErrInvalidInput},
		{"unknown method", types.ConfirmPaymentInput{OrderID: paid.ID, Payments: []types.PaymentInput{{Method: "Crypto", Amount: 20}}}, ErrInvalidMethod},
		{"zero amount", types.ConfirmPaymentInput{OrderID: paid.ID, Payments: []types.PaymentInput{pix(0)}}, ErrInvalidInput},
		{"unknown order", types.ConfirmPaymentInput{OrderID: "7d0f3cb5-0000-4000-8000-000000000000", Payments: []types.PaymentInput{pix(20)}}, ErrOrderNotFound},
		{"already paid", types.ConfirmPaymentInput{OrderID: paid.ID, Payments: []types.PaymentInput{pix(20)}}, ErrAlreadyPaid},
		{"cancelled", types.ConfirmPaymentInput{OrderID: cancelled.ID, Payments: []types.PaymentInput{pix(20)}}, ErrOrderCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ConfirmPayment(ctx, tc.input)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestConfirmPayment_ConcurrentConfirmationsSucceedOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service()
	order := h.pendingOrder(t, svc)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		errs      []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(20)}})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	for _, err := range errs {
		require.ErrorIs(t, err, ErrAlreadyPaid)
	}
	rows, err := h.payments.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, h.notifier.all(), 1)
}

func TestConfirmPayment_LockTimeout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	locker := locks.NewMemory()
	svc := h.service(WithLocker(locker), WithLockTimeout(20*time.Millisecond))
	order := h.pendingOrder(t, svc)

	unlock, err := locker.Lock(ctx, ConfirmationLockKey(order.ID))
	require.NoError(t, err)
	defer unlock()

	_, err = svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(20)}})
	require.ErrorIs(t, err, ErrConfirmationInProgress)
	require.Equal(t, "CONFIRMATION_IN_PROGRESS", Code(err))
}

// stuckLedger fails every status update, as if the order ledger went away
// after the payments were written.
type stuckLedger struct {
	ports.OrderLedger
}

func (stuckLedger) UpdateStatus(context.Context, string, ordersdomain.Status, int64) (*ordersdomain.Order, error) {
	return nil, errors.New("order ledger unavailable")
}

func TestConfirmPayment_VoidsPaymentsWhenStatusFlipFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.pendingOrder(t, h.service())

	deps := h.deps()
	deps.Orders = stuckLedger{OrderLedger: h.orders}
	svc := NewService(deps, WithLogger(observability.DiscardLogger()), WithNotifier(h.notifier))

	_, err := svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(20)}})
	require.Error(t, err)

	rows, err := h.payments.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, rows)
	require.Empty(t, h.notifier.all())
}

type unreachableUsers struct{}

func (unreachableUsers) GetUser(context.Context, int64) (*usersdomain.User, error) {
	return nil, errors.New("user directory timeout")
}

func TestConfirmPayment_UserLookupFailureSkipsEmailOnly(t *testing.T) {
	h := newHarness(t)
	order := h.pendingOrder(t, h.service())

	deps := h.deps()
	deps.Users = unreachableUsers{}
	svc := NewService(deps, WithLogger(observability.DiscardLogger()), WithNotifier(h.notifier))

	result, err := svc.ConfirmPayment(context.Background(), types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(20)}})
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPaid, result.Order.Status)
	require.Empty(t, h.notifier.all())
}

func TestConfirmPayment_FailedOrderIsPayable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service()
	order := h.pendingOrder(t, svc)
	failed, err := h.orders.UpdateStatus(ctx, order.ID, ordersdomain.StatusFailed, order.Version)
	require.NoError(t, err)

	result, err := svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(20)}})
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPaid, result.Order.Status)
	require.Equal(t, paymentsdomain.ConfirmationKey(order.ID, failed.Version, 0), result.Payments[0].IdempotencyKey)
}

func TestConfirmPayment_RejectsRetryThatDivergesFromRecordedPayments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.service()
	order := h.pendingOrder(t, svc)

	// An earlier attempt recorded PIX 20 and stopped before the status flip.
	earlier, err := paymentsdomain.NewPayment("earlier-pix", order.ID, paymentsdomain.MethodPIX, 20,
		paymentsdomain.SourceConfirmation, paymentsdomain.ConfirmationKey(order.ID, order.Version, 0))
	require.NoError(t, err)
	_, err = h.payments.Record(ctx, []*paymentsdomain.Payment{earlier})
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{
		OrderID:  order.ID,
		Payments: []types.PaymentInput{{Method: "Boleto", Amount: 10}, {Method: "Card", Amount: 10}},
	})
	require.ErrorIs(t, err, ErrPaymentsDiverged)
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, "PAYMENTS_DIVERGED", Code(err))

	stored, err := h.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPending, stored.Status)
	rows, err := h.payments.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	var confirmations []*paymentsdomain.Payment
	for _, p := range rows {
		if p.Source == paymentsdomain.SourceConfirmation {
			confirmations = append(confirmations, p)
		}
	}
	require.Len(t, confirmations, 1)
	require.Equal(t, "earlier-pix", confirmations[0].ID)

	result, err := svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(20)}})
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPaid, result.Order.Status)
	require.Len(t, result.Payments, 1)
	require.Equal(t, "earlier-pix", result.Payments[0].ID)
}

func TestConfirmPayment_StaleCachedOrderStillReportsAlreadyPaid(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deps := h.deps()
	deps.Orders = orderscache.New(h.orders, h.cache, observability.DiscardLogger()).Authoritative()
	svc := NewService(deps, WithLogger(observability.DiscardLogger()), WithCache(h.cache), WithNotifier(h.notifier))
	order := h.pendingOrder(t, svc)

	_, err := svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(20)}})
	require.NoError(t, err)

	// a slow reader re-caches the PENDING snapshot after the flip
	snapshot, err := json.Marshal(order)
	require.NoError(t, err)
	require.NoError(t, h.cache.Set(ctx, cache.OrderKey(order.ID), snapshot, cache.OrderTTL))

	_, err = svc.ConfirmPayment(ctx, types.ConfirmPaymentInput{OrderID: order.ID, Payments: []types.PaymentInput{pix(20)}})
	require.ErrorIs(t, err, ErrAlreadyPaid)
	require.Equal(t, "ALREADY_PAID", Code(err))
}
