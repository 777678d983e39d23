//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-commerce/internal/platform/postgres"
)

func setupPaymentsPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("commerce_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := platformpostgres.Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func newPayment(t *testing.T, orderID, key string) *domain.Payment {
	t.Helper()
	p, err := domain.NewPayment(uuid.NewString(), orderID, domain.MethodPIX, 20, domain.SourceConfirmation, key)
	require.NoError(t, err)
	p.CreatedAt = time.Now().UTC()
	return p
}

func TestRepository_RecordDeduplicatesByKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPaymentsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.NewString()

	first, err := repo.Record(ctx, []*domain.Payment{newPayment(t, orderID, domain.ConfirmationKey(orderID, 1, 0))})
	require.NoError(t, err)
	again, err := repo.Record(ctx, []*domain.Payment{newPayment(t, orderID, domain.ConfirmationKey(orderID, 1, 0))})
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, again[0].ID)

	list, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepository_DuplicateIDIsReported(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPaymentsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.NewString()
	p := newPayment(t, orderID, "k1")
	_, err := repo.Record(ctx, []*domain.Payment{p})
	require.NoError(t, err)

	clash := *p
	clash.IdempotencyKey = "k2"
	_, err = repo.Record(ctx, []*domain.Payment{&clash})
	assert.ErrorIs(t, err, ErrDuplicatePayment)
}

func TestRepository_VoidDeletesRows(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPaymentsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.NewString()
	recorded, err := repo.Record(ctx, []*domain.Payment{newPayment(t, orderID, "a"), newPayment(t, orderID, "b")})
	require.NoError(t, err)

	require.NoError(t, repo.Void(ctx, []string{recorded[0].ID, recorded[1].ID}))
	list, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
