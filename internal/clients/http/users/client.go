// Package users is the REST client of the user directory.
package users

import (
	"context"
	"fmt"
	"net/http"

	httpclient "github.com/Apurer/go-gin-commerce/internal/clients/http"
	"github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/http/mapper"
	"github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
)

type Client struct {
	http *httpclient.Client
}

func New(baseURL string, opts ...httpclient.Option) (*Client, error) {
	c, err := httpclient.New("users", baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

// GetUser fetches GET /users/:id. A 404 is reported as ports.ErrNotFound.
func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	seg, err := httpclient.PathParam("id", id)
	if err != nil {
		return nil, err
	}
	var out mapper.User
	if err := c.http.Do(ctx, http.MethodGet, "/users/"+seg, nil, nil, &out); err != nil {
		if httpclient.StatusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", ports.ErrNotFound, err)
		}
		return nil, err
	}
	return mapper.ToDomain(out), nil
}
