package domain

import (
	"fmt"
	"time"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Cart limits.
const (
	// MaxQuantityPerLine is the largest quantity a single line may hold.
	MaxQuantityPerLine = 100
	// MaxLinesPerCart is the number of distinct products a cart may hold.
	MaxLinesPerCart = 50
)

// CartLine is one product in a cart. A product id appears on at most one line.
type CartLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Cart is the shopper's pending selection. It is a plain value owned by its
// caller and persisted through a CartRepository.
type Cart struct {
	UserID    string     `json:"userId"`
	Lines     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewCart returns an empty cart for userID.
func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Lines: []CartLine{}}
}

// AddToCart sets the quantity for productID. A quantity of zero or less
// removes the line; a positive quantity replaces the existing line or adds
// a new one.
func (c *Cart) AddToCart(productID int64, quantity int) error {
	if productID <= 0 {
		return apperrors.InvalidInput("product id must be positive")
	}
	if quantity > MaxQuantityPerLine {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	idx := c.lineIndex(productID)
	if quantity <= 0 {
		if idx >= 0 {
			c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
		}
		return nil
	}

	if idx >= 0 {
		c.Lines[idx].Quantity = quantity
		return nil
	}
	if len(c.Lines) >= MaxLinesPerCart {
		return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxLinesPerCart))
	}
	c.Lines = append(c.Lines, CartLine{ProductID: productID, Quantity: quantity})
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = []CartLine{}
}

// Quantity returns the quantity held for productID, or 0.
func (c *Cart) Quantity(productID int64) int {
	if idx := c.lineIndex(productID); idx >= 0 {
		return c.Lines[idx].Quantity
	}
	return 0
}

// ItemCount returns the sum of all line quantities.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ProductIDs lists the products in line order.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, len(c.Lines))
	for i, l := range c.Lines {
		ids[i] = l.ProductID
	}
	return ids
}

func (c *Cart) lineIndex(productID int64) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
