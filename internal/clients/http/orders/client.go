// Package orders is the REST client of the order ledger.
package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	httpclient "github.com/Apurer/go-gin-commerce/internal/clients/http"
	"github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
)

type Client struct {
	http *httpclient.Client
}

func New(baseURL string, opts ...httpclient.Option) (*Client, error) {
	c, err := httpclient.New("orders", baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

// CreateOrder stores a prepared order with PUT /orders/:id, which is how a
// remote orchestrator inserts into the ledger without running the saga again.
func (c *Client) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	path, err := orderPath(order.ID, "")
	if err != nil {
		return nil, err
	}
	var out mapper.Order
	if err := c.http.Do(ctx, http.MethodPut, path, nil, mapper.FromDomain(order), &out); err != nil {
		return nil, mapErr(err)
	}
	return mapper.ToDomain(out), nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	path, err := orderPath(id, "")
	if err != nil {
		return nil, err
	}
	var out mapper.Order
	if err := c.http.Do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, mapErr(err)
	}
	return mapper.ToDomain(out), nil
}

func (c *Client) ListOrders(ctx context.Context, filter ports.Filter) ([]*domain.Order, error) {
	query := url.Values{}
	if filter.UserID > 0 {
		query.Set("userId", strconv.FormatInt(filter.UserID, 10))
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if !filter.CreatedBefore.IsZero() {
		query.Set("createdBefore", filter.CreatedBefore.UTC().Format(time.RFC3339Nano))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	var out []mapper.Order
	if err := c.http.Do(ctx, http.MethodGet, "/orders", query, nil, &out); err != nil {
		return nil, mapErr(err)
	}
	orders := make([]*domain.Order, 0, len(out))
	for _, o := range out {
		orders = append(orders, mapper.ToDomain(o))
	}
	return orders, nil
}

// UpdateStatus sends PATCH /orders/:id/status. Ledger rejections come back as
// the orders sentinels so version conflicts can be told apart from other 409s.
func (c *Client) UpdateStatus(ctx context.Context, id string, next domain.Status, expectedVersion int64) (*domain.Order, error) {
	path, err := orderPath(id, "/status")
	if err != nil {
		return nil, err
	}
	var out mapper.Order
	body := mapper.StatusChange{Status: string(next), Version: expectedVersion}
	if err := c.http.Do(ctx, http.MethodPatch, path, nil, body, &out); err != nil {
		return nil, mapErr(err)
	}
	return mapper.ToDomain(out), nil
}

func orderPath(id, suffix string) (string, error) {
	seg, err := httpclient.PathParam("id", id)
	if err != nil {
		return "", err
	}
	return "/orders/" + seg + suffix, nil
}

func mapErr(err error) error {
	if sentinel := mapper.ErrorFromCode(httpclient.CodeOf(err)); sentinel != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	if httpclient.StatusOf(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ports.ErrNotFound, err)
	}
	return err
}
