package domain

import (
	"fmt"
	"time"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Order status constants.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// Payment method constants.
const (
	PaymentMethodCOD      = "COD"
	PaymentMethodRazorpay = "RAZORPAY"
)

// Payment status constants.
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
	PaymentStatusFailed  = "FAILED"
)

// Order is a placed order. TotalAmount never changes after creation.
type Order struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	TotalAmount       int64       `json:"totalAmount"`
	Status            string      `json:"status"`
	PaymentMethod     string      `json:"paymentMethod"`
	PaymentStatus     string      `json:"paymentStatus"`
	ShippingAddressID string      `json:"shippingAddressId"`
	GatewayOrderID    *string     `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID  *string     `json:"gatewayPaymentId,omitempty"`
	Items             []OrderItem `json:"items"`
	ShippingAddress   *Address    `json:"shippingAddress,omitempty"`
	User              *OrderUser  `json:"user,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// OrderItem is one line of an order. Price is the unit price captured when
// the order was placed.
type OrderItem struct {
	ID           string `json:"id"`
	OrderID      string `json:"orderId"`
	ProductID    int64  `json:"productId"`
	Quantity     int    `json:"quantity"`
	Price        int64  `json:"price"`
	ProductName  string `json:"productName,omitempty"`
	ProductImage string `json:"productImage,omitempty"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// OrderUser is the customer summary shown on admin order views.
type OrderUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SumItems returns Σ price×quantity over items.
func SumItems(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// ValidStatuses returns all order statuses.
func ValidStatuses() []string {
	return []string{OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered, OrderStatusCancelled}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidPaymentMethod checks if a payment method string is valid.
func IsValidPaymentMethod(method string) bool {
	return method == PaymentMethodCOD || method == PaymentMethodRazorpay
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusDelivered, OrderStatusCancelled},
		OrderStatusDelivered:  {},
		OrderStatusCancelled:  {},
	}
}

// CanTransitionTo checks if the order can move to target.
func (o *Order) CanTransitionTo(target string) bool {
	for _, s := range AllowedTransitions()[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// CheckTransition validates a move to target. It returns noop=true when
// target equals the current status.
func (o *Order) CheckTransition(target string) (noop bool, err error) {
	if !IsValidStatus(target) {
		return false, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", target))
	}
	if o.Status == target {
		return true, nil
	}
	if !o.CanTransitionTo(target) {
		return false, apperrors.Conflict("INVALID_TRANSITION",
			fmt.Sprintf("cannot change order status from %s to %s", o.Status, target))
	}
	return false, nil
}

// IsPaid reports whether payment was captured.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
