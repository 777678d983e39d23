package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/memory"
	"github.com/Apurer/go-gin-commerce/internal/domains/users/application"
	"github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
	platformcache "github.com/Apurer/go-gin-commerce/internal/platform/cache"
	"github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

func TestService_ReadThroughAndInvalidateOnUpdate(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := New(application.NewService(memory.NewRepository()), platformcache.NewRedis(client), observability.DiscardLogger())

	created, err := svc.CreateUser(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)

	_, err = svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(platformcache.UserKey(created.ID)))
	require.Equal(t, platformcache.UserTTL, mr.TTL(platformcache.UserKey(created.ID)))

	_, err = svc.UpdateUser(ctx, created.ID, "Ana", "ana.new@example.com")
	require.NoError(t, err)
	require.False(t, mr.Exists(platformcache.UserKey(created.ID)))

	got, err := svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "ana.new@example.com", got.Email)
}

func TestService_MissingUserIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := platformcache.NewMemory()
	svc := New(application.NewService(memory.NewRepository()), store, observability.DiscardLogger())

	_, err := svc.GetUser(ctx, 42)
	require.ErrorIs(t, err, ports.ErrNotFound)
	_, ok, err := store.Get(ctx, platformcache.UserKey(42))
	require.NoError(t, err)
	require.False(t, ok)
}
