package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

// CartService owns the load-mutate-save cycle of shop carts.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// GetCart returns the user's cart, empty when none is stored.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// SetItem applies addToCart semantics: quantity <= 0 removes the line,
// otherwise the line's quantity is set. The product must exist to be added.
func (s *CartService) SetItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error) {
	if quantity > 0 {
		if _, err := s.products.GetByID(ctx, productID); err != nil {
			return nil, fmt.Errorf("get product for cart: %w", err)
		}
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if err := cart.AddToCart(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.DebugContext(ctx, "cart updated",
		slog.Int64("product_id", productID),
		slog.Int("quantity", quantity),
		slog.Int("lines", len(cart.Lines)),
	)
	return cart, nil
}

// ItemQuantity returns the quantity of productID in the cart, 0 if absent.
func (s *CartService) ItemQuantity(ctx context.Context, userID string, productID int64) (int, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get cart: %w", err)
	}
	return cart.Quantity(productID), nil
}

// ClearCart empties the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.carts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
