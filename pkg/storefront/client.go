// Package storefront is the customer-side view of the checkout API: a
// thin HTTP client and an explicit, serialisable cart.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultTimeout bounds a request when the context carries no deadline.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the checkout API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront api: %d %s", e.Status, e.Message)
}

// Client calls the checkout API on behalf of one shopper.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

// NewClient creates a Client for the API at baseURL. token is the shopper's
// access token and may be empty for the public endpoints.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: DefaultTimeout,
	}
}

// WithTimeout returns a copy of c using d as the default request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	cp := *c
	cp.timeout = d
	return &cp
}

// QuoteCoupon asks the validation callable for a live quote. The answer is
// advisory; the order endpoint re-checks the coupon before persisting.
// Coupon rejections come back as a quote with CouponValid false, not as an
// error.
func (c *Client) QuoteCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*Quote, error) {
	body := map[string]any{
		"couponCode": code,
		"subtotal":   subtotal.InexactFloat64(),
	}
	var quote Quote
	if err := c.do(ctx, fiber.MethodPost, "/functions/validate-coupon", body, &quote); err != nil {
		return nil, fmt.Errorf("quote coupon: %w", err)
	}
	return &quote, nil
}

// QuoteCart quotes the cart's coupon against its display subtotal.
func (c *Client) QuoteCart(ctx context.Context, cart *Cart) (*Quote, error) {
	return c.QuoteCoupon(ctx, cart.CouponCode, cart.Subtotal())
}

// ListProducts returns the products currently for sale.
func (c *Client) ListProducts(ctx context.Context) ([]*Product, error) {
	var products []*Product
	if err := c.do(ctx, fiber.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// PlaceOrder submits the cart and returns the order as priced by the server.
func (c *Client) PlaceOrder(ctx context.Context, cart *Cart) (*Order, error) {
	req := cart.OrderRequest()
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	var order Order
	if err := c.do(ctx, fiber.MethodPost, "/api/orders", req, &order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	return &order, nil
}

// GetOrder fetches one of the shopper's orders.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, fiber.MethodGet, "/api/orders/"+orderID, nil, &order); err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if in != nil {
		agent.JSON(in)
	}
	agent.Timeout(c.requestTimeout(ctx))

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return err
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		log.Debug().Errs("errors", errs).Str("path", path).Msg("storefront request failed")
		return errors.Join(errs...)
	}

	if status < 200 || status >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &body)
		return &APIError{Status: status, Message: body.Error}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
		return time.Millisecond
	}
	return c.timeout
}
