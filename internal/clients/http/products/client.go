// Package products is the REST client of the inventory ledger.
package products

import (
	"context"
	"fmt"
	"net/http"

	httpclient "github.com/Apurer/go-gin-commerce/internal/clients/http"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/http/mapper"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
)

type Client struct {
	http *httpclient.Client
}

func New(baseURL string, opts ...httpclient.Option) (*Client, error) {
	c, err := httpclient.New("products", baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	path, err := productPath(id, "")
	if err != nil {
		return nil, err
	}
	var out mapper.Product
	if err := c.http.Do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, mapErr(err)
	}
	return mapper.ToDomain(out), nil
}

// Reserve decrements stock with POST /products/:id/reserve. The server applies
// it as one conditional update.
func (c *Client) Reserve(ctx context.Context, id int64, quantity int64) (*domain.Product, error) {
	return c.move(ctx, id, "/reserve", quantity)
}

func (c *Client) Release(ctx context.Context, id int64, quantity int64) (*domain.Product, error) {
	return c.move(ctx, id, "/release", quantity)
}

func (c *Client) move(ctx context.Context, id int64, suffix string, quantity int64) (*domain.Product, error) {
	path, err := productPath(id, suffix)
	if err != nil {
		return nil, err
	}
	var out mapper.Product
	if err := c.http.Do(ctx, http.MethodPost, path, nil, mapper.Quantity{Quantity: quantity}, &out); err != nil {
		return nil, mapErr(err)
	}
	return mapper.ToDomain(out), nil
}

func productPath(id int64, suffix string) (string, error) {
	seg, err := httpclient.PathParam("id", id)
	if err != nil {
		return "", err
	}
	return "/products/" + seg + suffix, nil
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
