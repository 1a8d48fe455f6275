package mock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/utafrali/storefront/internal/payment"
)

// KeyID and Secret are the fixed credentials of the mock gateway.
const (
	KeyID  = "rzp_test_mock"
	Secret = "mock_secret"
)

// Gateway is a deterministic in-process payment gateway for development and
// tests. Signatures are computed exactly as the real gateway does, with
// Secret as the key.
type Gateway struct{}

// NewGateway creates a new mock gateway.
func NewGateway() *Gateway {
	return &Gateway{}
}

// Name returns the gateway name.
func (g *Gateway) Name() string {
	return "mock"
}

// KeyID returns the mock key id.
func (g *Gateway) KeyID() string {
	return KeyID
}

// CreateOrder returns an order whose id is derived from the receipt, so the
// same receipt always yields the same id.
func (g *Gateway) CreateOrder(_ context.Context, input *payment.CreateOrderInput) (*payment.Order, error) {
	sum := sha256.Sum256([]byte(input.Receipt))
	return &payment.Order{
		ID:       "order_mock_" + hex.EncodeToString(sum[:7]),
		Amount:   input.Amount,
		Currency: input.Currency,
		Receipt:  input.Receipt,
		Status:   "created",
	}, nil
}

// VerifySignature checks signature against Secret.
func (g *Gateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return payment.VerifySignature(gatewayOrderID, paymentID, signature, Secret)
}
