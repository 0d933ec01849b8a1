// Package api is the storefront client's view of the server: it pushes the
// local cart, places orders and looks up order history and shipments.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/storefront/internal/models"
)

// APIError is a non-2xx answer decoded from the server's error body.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: %d", e.Status)
	}
	return fmt.Sprintf("server error: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to one storefront server. The session cookie set by the
// server is kept for the lifetime of the Client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for baseURL. When caFile is not empty the server
// certificate must chain to it.
func New(baseURL, caFile string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	hc := &http.Client{Jar: jar, Timeout: 30 * time.Second}

	if caFile != "" {
		caCert, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA cert")
		}
		hc.Transport = &http.Transport{TLSClientConfig: &tls.Config{RootCAs: caPool}}
	}

	return NewWithHTTPClient(baseURL, hc), nil
}

// NewWithHTTPClient uses hc as is.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// PushCart replaces the server-side cart of this session with lines.
func (c *Client) PushCart(ctx context.Context, lines []models.CartLine) error {
	if lines == nil {
		lines = []models.CartLine{}
	}
	return c.do(ctx, http.MethodPut, "/api/cart", lines, nil)
}

// Quote prices the pushed cart for req without placing an order.
func (c *Client) Quote(ctx context.Context, req models.CheckoutRequest) (models.Quote, error) {
	var q models.Quote
	err := c.do(ctx, http.MethodPost, "/api/checkout/quote", req, &q)
	return q, err
}

// Checkout places an order for the pushed cart.
func (c *Client) Checkout(ctx context.Context, req models.CheckoutRequest) (models.Order, error) {
	var o models.Order
	err := c.do(ctx, http.MethodPost, "/api/checkout", req, &o)
	return o, err
}

// Orders lists the orders known to the server for this session.
func (c *Client) Orders(ctx context.Context, status, sort string) ([]models.Order, error) {
	path := "/api/orders"
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if sort != "" {
		q.Set("sort", sort)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var orders []models.Order
	err := c.do(ctx, http.MethodGet, path, nil, &orders)
	return orders, err
}

// Track looks up a shipment by order or tracking number.
func (c *Client) Track(ctx context.Context, number string) (models.TrackingInfo, error) {
	var info models.TrackingInfo
	err := c.do(ctx, http.MethodGet, "/api/tracking/"+url.PathEscape(number), nil, &info)
	return info, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
