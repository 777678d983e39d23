package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
)

func TestRepository_ConcurrentReservationsNeverOversell(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	saved, err := repo.Save(ctx, &domain.Product{Name: "Keyboard", Price: 10, Stock: 5})
	require.NoError(t, err)

	var wins, outOfStock atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Reserve(ctx, saved.ID, 1)
			switch {
			case err == nil:
				wins.Add(1)
			case err == domain.ErrOutOfStock:
				outOfStock.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(5), wins.Load())
	require.Equal(t, int32(15), outOfStock.Load())
	got, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), got.Stock)
}

func TestRepository_FailedMutationLeavesStockUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	saved, err := repo.Save(ctx, &domain.Product{Name: "Mouse", Price: 10, Stock: 2})
	require.NoError(t, err)

	_, err = repo.Reserve(ctx, saved.ID, 3)
	require.ErrorIs(t, err, domain.ErrOutOfStock)
	_, err = repo.Adjust(ctx, saved.ID, -3)
	require.ErrorIs(t, err, domain.ErrInvalidAdjustment)
	_, err = repo.Reserve(ctx, 999, 1)
	require.ErrorIs(t, err, ports.ErrNotFound)

	got, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Stock)
}

func TestRepository_SaveAssignsIDsAndKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	first, err := repo.Save(ctx, &domain.Product{Name: "A", Price: 1, Stock: 1})
	require.NoError(t, err)
	seeded, err := repo.Save(ctx, &domain.Product{ID: 10, Name: "B", Price: 1, Stock: 1})
	require.NoError(t, err)
	next, err := repo.Save(ctx, &domain.Product{Name: "C", Price: 1, Stock: 1})
	require.NoError(t, err)

	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(10), seeded.ID)
	require.Equal(t, int64(11), next.ID)

	first.Name = "A2"
	updated, err := repo.Save(ctx, first)
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, updated.CreatedAt)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "A2", list[0].Name)
}
