// Package checkout implements the shop's checkout wizard: a small state
// machine that walks ADDRESS -> PAYMENT -> REVIEW and submits exactly one
// order from REVIEW.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
)

// Wizard steps.
const (
	StepAddress   = "ADDRESS"
	StepPayment   = "PAYMENT"
	StepReview    = "REVIEW"
	StepSubmitted = "SUBMITTED"
)

var (
	// ErrIllegalMove is returned for a transition the current step does not allow.
	ErrIllegalMove = errors.New("illegal checkout step transition")

	// ErrNoAddress guards ADDRESS -> PAYMENT.
	ErrNoAddress = errors.New("select a shipping address first")

	// ErrNoPaymentMethod guards PAYMENT -> REVIEW.
	ErrNoPaymentMethod = errors.New("select a payment method first")

	// ErrEmptyCart is returned by PlaceOrder before anything is submitted.
	ErrEmptyCart = errors.New("cart is empty")
)

// Line is one cart line with the unit price the shopper is shown.
type Line struct {
	ProductID int64
	Name      string
	Quantity  int
	Price     int64
}

// OrderRequest is the payload of the single order submission.
type OrderRequest struct {
	Items             []OrderLine `json:"items"`
	TotalAmount       int64       `json:"totalAmount"`
	ShippingAddressID string      `json:"shippingAddressId"`
	PaymentMethod     string      `json:"paymentMethod"`
}

// OrderLine is one submitted line.
type OrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// Submitter creates the order. idempotencyKey is stable for the lifetime of
// one wizard, so a retried submission cannot create a second order.
type Submitter interface {
	Submit(ctx context.Context, idempotencyKey string, req OrderRequest) (*domain.Order, error)
}

// Cart is the wizard's view of the shopper's cart.
type Cart interface {
	Lines(ctx context.Context) ([]Line, error)
	Clear(ctx context.Context) error
}

// Wizard is one in-memory checkout attempt. It is not safe for concurrent use.
type Wizard struct {
	step          string
	addressID     string
	paymentMethod string
	order         *domain.Order
	key           string

	submitter Submitter
	cart      Cart
}

// New starts a wizard at ADDRESS.
func New(submitter Submitter, cart Cart) *Wizard {
	return &Wizard{
		step:      StepAddress,
		key:       uuid.New().String(),
		submitter: submitter,
		cart:      cart,
	}
}

// Step returns the current step.
func (w *Wizard) Step() string {
	return w.step
}

// AddressID returns the chosen shipping address, empty until the address step.
func (w *Wizard) AddressID() string {
	return w.addressID
}

// PaymentMethod returns the chosen payment method.
func (w *Wizard) PaymentMethod() string {
	return w.paymentMethod
}

// Order returns the placed order once the wizard is SUBMITTED.
func (w *Wizard) Order() *domain.Order {
	return w.order
}

// SelectAddress picks the shipping address. Only legal at ADDRESS.
func (w *Wizard) SelectAddress(id string) error {
	if w.step != StepAddress {
		return fmt.Errorf("%w: select address at %s", ErrIllegalMove, w.step)
	}
	w.addressID = id
	return nil
}

// SelectPaymentMethod picks COD or RAZORPAY. Only legal at PAYMENT.
func (w *Wizard) SelectPaymentMethod(method string) error {
	if w.step != StepPayment {
		return fmt.Errorf("%w: select payment method at %s", ErrIllegalMove, w.step)
	}
	if method != "" && !domain.IsValidPaymentMethod(method) {
		return fmt.Errorf("unsupported payment method %q", method)
	}
	w.paymentMethod = method
	return nil
}

// Continue moves one step forward. REVIEW is left only through PlaceOrder.
func (w *Wizard) Continue() error {
	switch w.step {
	case StepAddress:
		if w.addressID == "" {
			return ErrNoAddress
		}
		w.step = StepPayment
	case StepPayment:
		if w.paymentMethod == "" {
			return ErrNoPaymentMethod
		}
		w.step = StepReview
	default:
		return fmt.Errorf("%w: continue from %s", ErrIllegalMove, w.step)
	}
	return nil
}

// Back moves one step backward. Selections are kept.
func (w *Wizard) Back() error {
	switch w.step {
	case StepPayment:
		w.step = StepAddress
	case StepReview:
		w.step = StepPayment
	default:
		return fmt.Errorf("%w: back from %s", ErrIllegalMove, w.step)
	}
	return nil
}

// Review builds the request PlaceOrder would submit.
func (w *Wizard) Review(ctx context.Context) (OrderRequest, error) {
	lines, err := w.cart.Lines(ctx)
	if err != nil {
		return OrderRequest{}, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return OrderRequest{}, ErrEmptyCart
	}

	req := OrderRequest{
		Items:             make([]OrderLine, len(lines)),
		ShippingAddressID: w.addressID,
		PaymentMethod:     w.paymentMethod,
	}
	for i, l := range lines {
		req.Items[i] = OrderLine{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price}
		req.TotalAmount += l.Price * int64(l.Quantity)
	}
	return req, nil
}

// PlaceOrder submits the order once. On failure the wizard stays at REVIEW
// and the caller may retry. On success the wizard is SUBMITTED; a failure to
// clear the cart afterwards is returned alongside the order.
func (w *Wizard) PlaceOrder(ctx context.Context) (*domain.Order, error) {
	if w.step != StepReview {
		return nil, fmt.Errorf("%w: place order at %s", ErrIllegalMove, w.step)
	}

	req, err := w.Review(ctx)
	if err != nil {
		return nil, err
	}

	order, err := w.submitter.Submit(ctx, w.key, req)
	if err != nil {
		return nil, err
	}

	w.order = order
	w.step = StepSubmitted

	if err := w.cart.Clear(ctx); err != nil {
		return order, fmt.Errorf("order placed but clearing cart failed: %w", err)
	}
	return order, nil
}
