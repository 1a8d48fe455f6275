package checkout

import (
	"context"
	"fmt"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// envelope is the server's success wrapper.
type envelope[T any] struct {
	Data T `json:"data"`
}

// Client talks to the storefront API on behalf of one shopper. The session
// cookie set by Login is kept in the underlying client's jar.
type Client struct {
	http *httpclient.Client
}

// NewClient wraps an httpclient configured with a cookie jar.
func NewClient(c *httpclient.Client) *Client {
	return &Client{http: c}
}

// Login starts a shop session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	if err := c.http.DoJSON(ctx, http.MethodPost, "/api/v1/auth/login", body, nil); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// Addresses lists the shopper's addresses, default first.
func (c *Client) Addresses(ctx context.Context) ([]domain.Address, error) {
	var out envelope[[]domain.Address]
	if err := c.http.DoJSON(ctx, http.MethodGet, "/api/v1/addresses", nil, &out); err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return out.Data, nil
}

// SetItem applies addToCart semantics on the server cart.
func (c *Client) SetItem(ctx context.Context, productID int64, quantity int) error {
	body := domain.CartLine{ProductID: productID, Quantity: quantity}
	if err := c.http.DoJSON(ctx, http.MethodPut, "/api/v1/cart/items", body, nil); err != nil {
		return fmt.Errorf("set cart item: %w", err)
	}
	return nil
}

// Lines returns the cart joined with live product prices.
func (c *Client) Lines(ctx context.Context) ([]Line, error) {
	var cart envelope[domain.Cart]
	if err := c.http.DoJSON(ctx, http.MethodGet, "/api/v1/cart", nil, &cart); err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if len(cart.Data.Lines) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(cart.Data.Lines))
	for i, l := range cart.Data.Lines {
		ids[i] = l.ProductID
	}
	var products envelope[[]domain.Product]
	body := map[string][]int64{"productIds": ids}
	if err := c.http.DoJSON(ctx, http.MethodPost, "/api/v1/cart-products", body, &products); err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	byID := make(map[int64]domain.Product, len(products.Data))
	for _, p := range products.Data {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(cart.Data.Lines))
	for _, l := range cart.Data.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			// Product was removed from the catalog since it was added.
			continue
		}
		lines = append(lines, Line{ProductID: p.ID, Name: p.Name, Quantity: l.Quantity, Price: p.Price})
	}
	return lines, nil
}

// Clear empties the server cart.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.http.DoJSON(ctx, http.MethodDelete, "/api/v1/cart", nil, nil); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Submit posts the order with an Idempotency-Key so the client's retries
// never create a second order.
func (c *Client) Submit(ctx context.Context, idempotencyKey string, req OrderRequest) (*domain.Order, error) {
	var out envelope[domain.Order]
	err := c.http.DoJSON(ctx, http.MethodPost, "/api/v1/checkout", req, &out,
		httpclient.WithHeader("Idempotency-Key", idempotencyKey))
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	return &out.Data, nil
}
