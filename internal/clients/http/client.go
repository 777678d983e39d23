// Package httpclient is the shared plumbing of the REST clients that let the
// checkout sagas reach collaborators deployed as separate services.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every remote call unless WithTimeout says otherwise.
const DefaultTimeout = 5 * time.Second

// Problem is the RFC 7807 body returned by the services of this module.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// UpstreamError reports a failed call to a collaborator. StatusCode is zero
// when no response arrived.
type UpstreamError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Code       string
	Detail     string
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s %s %s: timed out", e.Service, e.Method, e.Path)
	case e.StatusCode == 0:
		return fmt.Sprintf("%s %s %s: %v", e.Service, e.Method, e.Path, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s %s %s: status %d: %s", e.Service, e.Method, e.Path, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s %s %s: status %d", e.Service, e.Method, e.Path, e.StatusCode)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Retryable reports transient failures: timeouts, transport errors, 429 and 5xx.
func (e *UpstreamError) Retryable() bool {
	return e.Timeout || e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// HTTPStatus is the status to relay to our own caller.
func (e *UpstreamError) HTTPStatus() int {
	switch {
	case e.Timeout:
		return http.StatusGatewayTimeout
	case e.StatusCode >= http.StatusBadRequest:
		return e.StatusCode
	default:
		return http.StatusBadGateway
	}
}

// StatusOf returns the collaborator's status code carried by err, or zero.
func StatusOf(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}

// CodeOf returns the problem code carried by err, or "".
func CodeOf(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ""
}

// Client sends JSON requests to one collaborator.
type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default otelhttp-instrumented client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// New builds a client for the named service rooted at baseURL.
func New(service, baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%s base URL is required", service)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%s base URL: %w", service, err)
	}
	c := &Client{
		service:    service,
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// PathParam renders a path segment with OpenAPI simple style.
func PathParam(name string, value any) (string, error) {
	return runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
}

// Do sends body as JSON and decodes a 2xx response into out (when non-nil).
// Any other outcome is an *UpstreamError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.service, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Service: c.service, Method: method, Path: path, Timeout: isTimeout(err), Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return c.decodeProblem(res, method, path)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &UpstreamError{Service: c.service, Method: method, Path: path, StatusCode: res.StatusCode,
			Detail: "undecodable response body", Timeout: isTimeout(err), Err: err}
	}
	return nil
}

func (c *Client) decodeProblem(res *http.Response, method, path string) error {
	ue := &UpstreamError{Service: c.service, Method: method, Path: path, StatusCode: res.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	var problem Problem
	if err := json.Unmarshal(raw, &problem); err == nil {
		ue.Code = problem.Code
		ue.Detail = problem.Detail
		if ue.Detail == "" {
			ue.Detail = problem.Title
		}
	}
	if ue.Detail == "" {
		ue.Detail = strings.TrimSpace(string(raw))
	}
	ue.Err = errors.New(res.Status)
	return ue
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
