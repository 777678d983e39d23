package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/http/mapper"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
)

func TestClient_ReserveAndRelease(t *testing.T) {
	stock := int64(5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body mapper.Quantity
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		switch r.URL.Path {
		case "/products/1/reserve":
			if body.Quantity > stock {
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"status":409,"detail":"insufficient stock","code":"OUT_OF_STOCK"}`))
				return
			}
			stock -= body.Quantity
		case "/products/1/release":
			stock += body.Quantity
		case "/products/1":
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mapper.Product{ID: 1, Name: "Pen", Price: 2.5, Stock: stock})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	p, err := c.Reserve(ctx, 1, 3)
	require.NoError(t, err)
	require.Equal(t, int64(2), p.Stock)

	_, err = c.Reserve(ctx, 1, 3)
	require.ErrorIs(t, err, domain.ErrOutOfStock)

	p, err = c.Release(ctx, 1, 3)
	require.NoError(t, err)
	require.Equal(t, int64(5), p.Stock)

	p, err = c.GetProduct(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2.5, p.Price)

	_, err = c.GetProduct(ctx, 9)
	require.ErrorIs(t, err, ports.ErrNotFound)
}
