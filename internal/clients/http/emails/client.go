// Package emails is the REST client of the notification service.
package emails

import (
	"context"
	"fmt"
	"net/http"

	httpclient "github.com/Apurer/go-gin-commerce/internal/clients/http"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/application"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/ports"
)

const (
	PathPaymentConfirmation = "/emails/payment/confirmation"
	PathLowStock            = "/emails/inventory/low-stock"
)

var _ ports.Service = (*Client)(nil)

type Client struct {
	http *httpclient.Client
}

func New(baseURL string, opts ...httpclient.Option) (*Client, error) {
	c, err := httpclient.New("emails", baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

func (c *Client) SendPaymentConfirmation(ctx context.Context, req domain.PaymentConfirmation) error {
	return mapErr(c.http.Do(ctx, http.MethodPost, PathPaymentConfirmation, nil, req, nil))
}

func (c *Client) SendLowStock(ctx context.Context, req domain.LowStock) error {
	return mapErr(c.http.Do(ctx, http.MethodPost, PathLowStock, nil, req, nil))
}

func mapErr(err error) error {
	if err != nil && httpclient.StatusOf(err) == http.StatusBadRequest {
		return fmt.Errorf("%w: %w", application.ErrInvalidInput, err)
	}
	return err
}
