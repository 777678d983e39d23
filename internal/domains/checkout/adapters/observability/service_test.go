package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application"
	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
)

type stubCheckout struct {
	err error
}

func (s stubCheckout) CreateOrder(context.Context, types.CreateOrderInput) (*ordersdomain.Order, error) {
	return nil, s.err
}

func (s stubCheckout) ConfirmPayment(_ context.Context, input types.ConfirmPaymentInput) (*types.ConfirmationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.ConfirmationResult{Order: &ordersdomain.Order{ID: input.OrderID, Status: ordersdomain.StatusPaid, Version: 2}, Amount: 20}, nil
}

func (s stubCheckout) Reconcile(context.Context, time.Duration) (*types.ReconcileReport, error) {
	return &types.ReconcileReport{Checked: 3, Repaired: []string{"o-1"}}, s.err
}

func TestService_LogsRejectionsAtWarnWithCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := New(stubCheckout{err: &application.AmountMismatchError{Expected: 20, Provided: 19.98}}, WithLogger(logger))

	_, err := svc.ConfirmPayment(context.Background(), types.ConfirmPaymentInput{OrderID: "o-1"})
	require.Error(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "WARN", entry["level"])
	require.Equal(t, "AMOUNT_MISMATCH", entry["error.code"])
	require.Equal(t, 19.98, entry["amount.provided"])
}

func TestService_CountsOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	ok := New(stubCheckout{}, WithMeter(meter))
	_, err := ok.ConfirmPayment(context.Background(), types.ConfirmPaymentInput{OrderID: "o-1"})
	require.NoError(t, err)
	_, err = ok.Reconcile(context.Background(), time.Minute)
	require.NoError(t, err)

	failing := New(stubCheckout{err: application.ErrOutOfStock}, WithMeter(meter))
	_, err = failing.CreateOrder(context.Background(), types.CreateOrderInput{UserID: 1})
	require.ErrorIs(t, err, application.ErrOutOfStock)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	sums := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	require.Equal(t, int64(1), sums["checkout.payments.confirmations"])
	require.Equal(t, int64(1), sums["checkout.orders.created"])
	require.Equal(t, int64(1), sums["checkout.reconcile.repaired"])
}
