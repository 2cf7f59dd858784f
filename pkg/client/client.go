// Package client talks to the coffeeshop order API: it discovers the API
// base URL, loads item types and fulfillment orders, and places orders.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"posterminal/pkg/catalog"
	"posterminal/pkg/errs"
	"posterminal/pkg/logger"
	"posterminal/pkg/order"
	"posterminal/pkg/otel"
)

const (
	itemTypesPath         = "/v1/api/item-types"
	fulfillmentOrdersPath = "/v1/fulfillment-orders"
	placeOrderPath        = "/v1/api/orders"
	reverseProxyURLPath   = "/reverse-proxy-url"

	headerRequestID      = "X-Request-Id"
	headerIdempotencyKey = "X-Idempotency-Key"

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 10 * time.Second
	// DefaultRetries is the number of attempts for idempotent reads.
	DefaultRetries = 3
)

// Client is safe for concurrent use.
type Client struct {
	mu      sync.RWMutex
	base    string
	webURL  string
	hc      *http.Client
	log     *logger.Logger
	retries uint
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithWebURL sets the web front end asked for the API base URL while
// the base is unknown.
func WithWebURL(webURL string) Option {
	return func(c *Client) { c.webURL = strings.TrimRight(webURL, "/") }
}

// WithRetries sets the attempts for GET requests. 1 disables retrying.
func WithRetries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// New returns a client for the API at base. base may be empty until
// Discover or SetBase is called; with WithWebURL an empty base is
// discovered on the first request that needs it.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: DefaultTimeout},
		log:     logger.NewNop(),
		retries: DefaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the API base URL in use.
func (c *Client) Base() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base
}

// SetBase changes the API base URL.
func (c *Client) SetBase(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = strings.TrimRight(base, "/")
}

type urlModel struct {
	URL string `json:"url"`
}

// Discover asks the web front end at webURL for the API base URL and
// starts using it.
func (c *Client) Discover(ctx context.Context, webURL string) (string, error) {
	var res urlModel
	if err := c.getJSON(ctx, strings.TrimRight(webURL, "/")+reverseProxyURLPath, &res); err != nil {
		return "", err
	}
	if res.URL == "" {
		return "", fmt.Errorf("%w: %s returned an empty url", errs.ErrNetwork, reverseProxyURLPath)
	}
	c.SetBase(res.URL)
	c.log.Info(ctx, "discovered api base", "url", res.URL)
	return res.URL, nil
}

type itemTypesResponse struct {
	ItemTypes []catalog.Product `json:"itemTypes"`
}

// ItemTypes loads the product catalog.
func (c *Client) ItemTypes(ctx context.Context) ([]catalog.Product, error) {
	ctx, span := otel.AddSpan(ctx, "client.ItemTypes")
	defer span.End()

	var res itemTypesResponse
	url, err := c.endpoint(ctx, itemTypesPath)
	if err != nil {
		return nil, err
	}
	if err := c.getJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return res.ItemTypes, nil
}

type ordersResponse struct {
	Orders []order.Order `json:"orders"`
}

// FulfillmentOrders loads the orders known to the counter service.
func (c *Client) FulfillmentOrders(ctx context.Context) ([]order.Order, error) {
	ctx, span := otel.AddSpan(ctx, "client.FulfillmentOrders")
	defer span.End()

	var res ordersResponse
	url, err := c.endpoint(ctx, fulfillmentOrdersPath)
	if err != nil {
		return nil, err
	}
	if err := c.getJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return res.Orders, nil
}

// PlaceOrder posts o exactly once. The key from order.WithIdempotencyKey,
// if any, is sent in the X-Idempotency-Key header.
func (c *Client) PlaceOrder(ctx context.Context, o order.Order) (order.Ack, error) {
	ctx, span := otel.AddSpan(ctx, "client.PlaceOrder")
	defer span.End()

	url, err := c.endpoint(ctx, placeOrderPath)
	if err != nil {
		return order.Ack{}, err
	}
	body, err := json.Marshal(o)
	if err != nil {
		return order.Ack{}, errors.Wrap(err, "encode order")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return order.Ack{}, errors.Wrap(err, "build order request")
	}
	req.Header.Set("Content-Type", "application/json")
	if key := order.IdempotencyKey(ctx); key != "" {
		req.Header.Set(headerIdempotencyKey, key)
	}

	raw, err := c.do(req)
	if err != nil {
		return order.Ack{}, err
	}
	c.log.Info(ctx, "order placed", "barista_items", len(o.BaristaItems), "kitchen_items", len(o.KitchenItems))
	return order.Ack{Body: raw}, nil
}

// endpoint resolves path against the API base, discovering the base first
// when it is still unknown.
func (c *Client) endpoint(ctx context.Context, path string) (string, error) {
	base := c.Base()
	if base == "" && c.webURL != "" {
		discovered, err := c.Discover(ctx, c.webURL)
		if err != nil {
			return "", err
		}
		base = strings.TrimRight(discovered, "/")
	}
	if base == "" {
		return "", fmt.Errorf("%w: order api base url is unknown", errs.ErrNetwork)
	}
	return base + path, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	raw, err := backoff.Retry(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(errors.Wrap(err, "build request"))
		}
		raw, err := c.do(req)
		if err != nil {
			c.log.Warn(ctx, "upstream get failed", "url", url, "error", err)
			var se *StatusError
			if errors.As(err, &se) && !se.Retryable() {
				return nil, backoff.Permanent(err)
			}
		}
		return raw, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.retries),
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", errs.ErrNetwork, url, err)
	}
	return nil
}

// do sends req and returns the body of a 2xx response. Every failure is
// reported as errs.ErrNetwork.
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", errs.ErrNetwork, req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", errs.ErrNetwork, req.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: req.Method, URL: req.URL.String(), Code: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, strings.TrimSpace(e.Body))
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Unwrap classifies every status error as a network error.
func (e *StatusError) Unwrap() error {
	return errs.ErrNetwork
}
