package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/payment"
)

func TestGateway_CreateOrderIsDeterministic(t *testing.T) {
	g := NewGateway()
	in := &payment.CreateOrderInput{Amount: 300, Currency: "INR", Receipt: "receipt_order_abc"}

	first, err := g.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	second, err := g.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "order_mock_59c4381667ecb2", first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(300), first.Amount)
	assert.Equal(t, "created", first.Status)
}

func TestGateway_VerifySignature(t *testing.T) {
	g := NewGateway()
	sig := payment.Sign("order_mock_1", "pay_1", Secret)

	assert.True(t, g.VerifySignature("order_mock_1", "pay_1", sig))
	assert.False(t, g.VerifySignature("order_mock_1", "pay_1", "bad"))
	assert.Equal(t, KeyID, g.KeyID())
	assert.Equal(t, "mock", g.Name())
}
