package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-commerce/internal/domains/orders/application"
	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	platformcache "github.com/Apurer/go-gin-commerce/internal/platform/cache"
	"github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

func TestService_StatusChangeDropsCachedOrder(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := New(application.NewService(memory.NewRepository()), platformcache.NewRedis(client), observability.DiscardLogger())

	created, err := svc.CreateOrder(ctx, &domain.Order{UserID: 1, Items: []domain.Item{{ProductID: 1, Quantity: 1, Subtotal: 10}}})
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(platformcache.OrderKey(created.ID)))
	require.Equal(t, platformcache.OrderTTL, mr.TTL(platformcache.OrderKey(created.ID)))

	_, err = svc.UpdateStatus(ctx, created.ID, domain.StatusPaid, 0)
	require.NoError(t, err)
	require.False(t, mr.Exists(platformcache.OrderKey(created.ID)))

	fresh, err := svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, fresh.Status)
	require.Equal(t, int64(2), fresh.Version)
}

func TestService_CacheOutageFallsBackToLedger(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := New(application.NewService(memory.NewRepository()), platformcache.NewRedis(client), observability.DiscardLogger())

	created, err := svc.CreateOrder(ctx, &domain.Order{UserID: 1, Items: []domain.Item{{ProductID: 1, Quantity: 1, Subtotal: 10}}})
	require.NoError(t, err)
	mr.Close()

	got, err := svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestService_AuthoritativeViewIgnoresStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	store := platformcache.NewMemory()
	svc := New(application.NewService(memory.NewRepository()), store, observability.DiscardLogger())
	ledger := svc.Authoritative()

	created, err := svc.CreateOrder(ctx, &domain.Order{UserID: 1, Items: []domain.Item{{ProductID: 1, Quantity: 1, Subtotal: 10}}})
	require.NoError(t, err)
	stale, err := svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)

	_, err = ledger.UpdateStatus(ctx, created.ID, domain.StatusPaid, created.Version)
	require.NoError(t, err)
	// a reader that missed before the write puts the old snapshot back
	snapshot, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, platformcache.OrderKey(created.ID), snapshot, platformcache.OrderTTL))

	got, err := ledger.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, got.Status)
	require.Equal(t, created.Version+1, got.Version)
}
