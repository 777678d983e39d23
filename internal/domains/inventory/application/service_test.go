package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/memory"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []ports.LowStockAlert
	err    error
}

func (f *fakeNotifier) NotifyLowStock(_ context.Context, alert ports.LowStockAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return f.err
}

func newServiceWithProduct(t *testing.T, stock int64, notifier ports.LowStockNotifier) (*Service, *domain.Product) {
	t.Helper()
	svc := NewService(memory.NewRepository(),
		WithLowStockAlerts(notifier, 5, "supplier@example.com"),
		WithLogger(observability.DiscardLogger()))
	p, err := svc.CreateProduct(context.Background(), &domain.Product{Name: "Keyboard", Price: 10, Stock: stock})
	require.NoError(t, err)
	return svc, p
}

func TestAdjustStock_CrossingThresholdNotifiesOnce(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, p := newServiceWithProduct(t, 6, notifier)

	updated, err := svc.AdjustStock(context.Background(), p.ID, -2)
	require.NoError(t, err)
	require.Equal(t, int64(4), updated.Stock)

	// already below: no repeat alert
	_, err = svc.AdjustStock(context.Background(), p.ID, -1)
	require.NoError(t, err)

	require.Len(t, notifier.alerts, 1)
	require.Equal(t, ports.LowStockAlert{
		To: "supplier@example.com", ProductID: p.ID, ProductName: "Keyboard", CurrentStock: 4, Threshold: 5,
	}, notifier.alerts[0])
}

func TestAdjustStock_NotifierFailureDoesNotFailAdjustment(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc, p := newServiceWithProduct(t, 6, notifier)

	updated, err := svc.AdjustStock(context.Background(), p.ID, -2)
	require.NoError(t, err)
	require.Equal(t, int64(4), updated.Stock)
	require.Len(t, notifier.alerts, 1)
}

func TestReserve_CrossingThresholdNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, p := newServiceWithProduct(t, 7, notifier)

	_, err := svc.Reserve(context.Background(), p.ID, 2)
	require.NoError(t, err)
	require.Len(t, notifier.alerts, 1)
	require.Equal(t, int64(5), notifier.alerts[0].CurrentStock)
}

func TestReserve_RejectsWithoutTouchingStock(t *testing.T) {
	svc, p := newServiceWithProduct(t, 5, nil)

	_, err := svc.Reserve(context.Background(), p.ID, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Reserve(context.Background(), p.ID, 6)
	require.ErrorIs(t, err, domain.ErrOutOfStock)

	got, err := svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5), got.Stock)
}

func TestRelease_RestoresStock(t *testing.T) {
	svc, p := newServiceWithProduct(t, 5, nil)
	_, err := svc.Reserve(context.Background(), p.ID, 2)
	require.NoError(t, err)

	restored, err := svc.Release(context.Background(), p.ID, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), restored.Stock)

	_, err = svc.Release(context.Background(), p.ID, -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdjustStock_NegativeResultRejected(t *testing.T) {
	svc, p := newServiceWithProduct(t, 3, nil)
	_, err := svc.AdjustStock(context.Background(), p.ID, -4)
	require.ErrorIs(t, err, domain.ErrInvalidAdjustment)
}

func TestUpdateProduct_KeepsIdentityAndNotifiesOnCrossing(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, p := newServiceWithProduct(t, 8, notifier)

	updated, err := svc.UpdateProduct(context.Background(), p.ID, &domain.Product{Name: "Keyboard Pro", Price: 15, Stock: 2})
	require.NoError(t, err)
	require.Equal(t, p.ID, updated.ID)
	require.Equal(t, "Keyboard Pro", updated.Name)
	require.Len(t, notifier.alerts, 1)

	_, err = svc.UpdateProduct(context.Background(), p.ID, &domain.Product{Name: "Keyboard", Price: -1, Stock: 2})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateProduct(context.Background(), 404, &domain.Product{Name: "x", Price: 1})
	require.ErrorIs(t, err, ports.ErrNotFound)
}
