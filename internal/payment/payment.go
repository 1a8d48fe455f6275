package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ReceiptPrefix prefixes the gateway receipt of every order.
const ReceiptPrefix = "receipt_order_"

// CreateOrderInput holds the parameters for opening a gateway order.
type CreateOrderInput struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is a payment order opened on the gateway.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// Gateway defines the interface for payment gateway integrations.
type Gateway interface {
	// Name returns the gateway name ("razorpay", "mock").
	Name() string

	// KeyID is the public key handed to the browser checkout widget.
	KeyID() string

	// CreateOrder opens a payment order for amount in the minor unit.
	CreateOrder(ctx context.Context, input *CreateOrderInput) (*Order, error)

	// VerifySignature checks the signature the checkout widget returns
	// after a successful payment.
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// Sign returns hex(HMAC-SHA256(gatewayOrderID + "|" + paymentID, secret)).
func Sign(gatewayOrderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature against Sign in constant time.
func VerifySignature(gatewayOrderID, paymentID, signature, secret string) bool {
	expected := Sign(gatewayOrderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Receipt returns the receipt label for orderID.
func Receipt(orderID string) string {
	return ReceiptPrefix + orderID
}
