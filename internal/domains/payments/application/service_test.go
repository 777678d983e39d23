package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
)

type fakePaymentRepo struct {
	recorded []*domain.Payment
	voided   []string
}

func (f *fakePaymentRepo) Record(_ context.Context, payments []*domain.Payment) ([]*domain.Payment, error) {
	f.recorded = append(f.recorded, payments...)
	return payments, nil
}

func (f *fakePaymentRepo) Void(_ context.Context, ids []string) error {
	f.voided = append(f.voided, ids...)
	return nil
}

func (f *fakePaymentRepo) ListByOrder(_ context.Context, orderID string) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, p := range f.recorded {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestRecord_AssignsIDsAndForcesPending(t *testing.T) {
	repo := &fakePaymentRepo{}
	svc := NewService(repo)

	recorded, err := svc.Record(context.Background(), []*domain.Payment{{
		OrderID:        "o1",
		Method:         "Cartão",
		Amount:         20,
		Status:         domain.StatusConfirmed,
		Source:         domain.SourceConfirmation,
		IdempotencyKey: domain.ConfirmationKey("o1", 1, 0),
	}})
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	require.NotEmpty(t, recorded[0].ID)
	require.Equal(t, domain.MethodCard, recorded[0].Method)
	require.Equal(t, domain.StatusPending, recorded[0].Status)
	require.False(t, recorded[0].CreatedAt.IsZero())
}

func TestRecord_RejectsWholeBatchOnInvalidEntry(t *testing.T) {
	repo := &fakePaymentRepo{}
	svc := NewService(repo)

	_, err := svc.Record(context.Background(), []*domain.Payment{
		{OrderID: "o1", Method: domain.MethodPIX, Amount: 10, Source: domain.SourceConfirmation, IdempotencyKey: "a"},
		{OrderID: "o1", Method: domain.MethodPIX, Amount: -1, Source: domain.SourceConfirmation, IdempotencyKey: "b"},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	require.Empty(t, repo.recorded)
}

func TestVoid_SkipsEmptyBatch(t *testing.T) {
	repo := &fakePaymentRepo{}
	svc := NewService(repo)
	require.NoError(t, svc.Void(context.Background(), nil))
	require.Empty(t, repo.voided)
	require.NoError(t, svc.Void(context.Background(), []string{"p1"}))
	require.Equal(t, []string{"p1"}, repo.voided)
}

func TestListByOrder_RequiresOrderID(t *testing.T) {
	svc := NewService(&fakePaymentRepo{})
	_, err := svc.ListByOrder(context.Background(), " ")
	require.ErrorIs(t, err, ErrInvalidInput)
}
