package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	commerceserver "github.com/Apurer/go-gin-commerce/go"
	checkoutworkflows "github.com/Apurer/go-gin-commerce/internal/domains/checkout/adapters/workflows"
	checkoutapp "github.com/Apurer/go-gin-commerce/internal/domains/checkout/application"
	checkouttypes "github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	inventorydomain "github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	platformobservability "github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

func testInstruments() *platformobservability.Instruments {
	return &platformobservability.Instruments{
		Logger:   platformobservability.DiscardLogger(),
		Registry: platformobservability.NewRegistry(),
	}
}

func memoryConfig(t *testing.T) Config {
	t.Helper()
	t.Setenv("POSTGRES_DSN", "")
	return Config{
		Port:              "0",
		RemoteTimeout:     time.Second,
		LockTimeout:       time.Second,
		ReconcileInterval: time.Minute,
		ReconcileAge:      time.Minute,
		LowStockThreshold: 2,
		LowStockRecipient: "estoque@example.com",
		EmailFrom:         "noreply@example.com",
		TaskWorkers:       1,
		CORSOrigins:       []string{"*"},
		PaymentsBoltPath:  filepath.Join(t.TempDir(), "payments.db"),
	}
}

func build(t *testing.T, cfg Config) *Components {
	t.Helper()
	c, err := Build(context.Background(), cfg, testInstruments())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func send(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_ServesDomainRoutesMetricsAndCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := memoryConfig(t)
	c := build(t, cfg)
	instruments := testInstruments()
	router := NewRouter(cfg, c, checkoutworkflows.NewInlineOrderWorkflows(c.Checkout), instruments)

	rec := send(t, router, http.MethodPost, "/users", map[string]string{"name": "Ana", "email": "ana@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = send(t, router, http.MethodPost, "/products", map[string]any{"name": "Caneca", "price": 12.5, "stock": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = send(t, router, http.MethodPost, "/orders", map[string]any{
		"userId": 1,
		"items":  []map[string]any{{"productId": 1, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order struct {
		ID    string  `json:"id"`
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	require.Equal(t, 25.0, order.Total)

	rec = send(t, router, http.MethodPost, "/payments/confirm", map[string]any{
		"orderId":  order.ID,
		"payments": []map[string]any{{"method": "PIX", "amount": 25}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")

	req := httptest.NewRequest(http.MethodOptions, "/orders", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", commerceserver.HeaderIdempotencyKey)
	pre := httptest.NewRecorder()
	router.ServeHTTP(pre, req)
	require.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuild_UsesRemoteUserDirectory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	remote := build(t, memoryConfig(t))
	usersServer := httptest.NewServer(commerceserver.NewRouter(commerceserver.ApiHandleFunctions{
		UserAPI: commerceserver.NewUserAPI(remote.Users),
	}))
	t.Cleanup(usersServer.Close)
	rec := send(t, usersServer.Config.Handler, http.MethodPost, "/users", map[string]string{"name": "Bia", "email": "bia@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	cfg := memoryConfig(t)
	cfg.UsersURL = usersServer.URL
	local := build(t, cfg)
	ctx := context.Background()
	product, err := inventorydomain.NewProduct(0, "Livro", 30, 3)
	require.NoError(t, err)
	_, err = local.Inventory.CreateProduct(ctx, product)
	require.NoError(t, err)

	order, err := local.Checkout.CreateOrder(ctx, checkouttypes.CreateOrderInput{
		UserID: 1,
		Items:  []checkouttypes.ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), order.UserID)

	_, err = local.Checkout.CreateOrder(ctx, checkouttypes.CreateOrderInput{
		UserID: 99,
		Items:  []checkouttypes.ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, checkoutapp.ErrUserNotFound)
}

func TestReconcileOnce_ToleratesEmptyLedger(t *testing.T) {
	c := build(t, memoryConfig(t))
	require.NotPanics(t, func() {
		ReconcileOnce(context.Background(), c.Checkout, time.Minute, platformobservability.DiscardLogger())
	})
}
