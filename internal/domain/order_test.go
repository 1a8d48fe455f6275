package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ============================================================================
// Totals
// ============================================================================

func TestSumItems(t *testing.T) {
	items := []OrderItem{
		{ProductID: 7, Quantity: 2, Price: 150},
		{ProductID: 8, Quantity: 1, Price: 999},
	}
	assert.Equal(t, int64(1299), SumItems(items))
	assert.Equal(t, int64(300), items[0].LineTotal())
}

func TestSumItems_Empty(t *testing.T) {
	assert.Equal(t, int64(0), SumItems(nil))
}

// ============================================================================
// Status transitions
// ============================================================================

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to string
		noop     bool
		wantErr  error
	}{
		{OrderStatusPending, OrderStatusProcessing, false, nil},
		{OrderStatusPending, OrderStatusCancelled, false, nil},
		{OrderStatusProcessing, OrderStatusDelivered, false, nil},
		{OrderStatusProcessing, OrderStatusCancelled, false, nil},
		{OrderStatusPending, OrderStatusPending, true, nil},
		{OrderStatusDelivered, OrderStatusDelivered, true, nil},
		{OrderStatusPending, OrderStatusDelivered, false, apperrors.ErrConflict},
		{OrderStatusDelivered, OrderStatusCancelled, false, apperrors.ErrConflict},
		{OrderStatusCancelled, OrderStatusPending, false, apperrors.ErrConflict},
		{OrderStatusProcessing, OrderStatusPending, false, apperrors.ErrConflict},
		{OrderStatusPending, "SHIPPED", false, apperrors.ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.from+"->"+tc.to, func(t *testing.T) {
			o := &Order{Status: tc.from}
			noop, err := o.CheckTransition(tc.to)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.noop, noop)
		})
	}
}

func TestIsValidPaymentMethod(t *testing.T) {
	assert.True(t, IsValidPaymentMethod(PaymentMethodCOD))
	assert.True(t, IsValidPaymentMethod(PaymentMethodRazorpay))
	assert.False(t, IsValidPaymentMethod("cod"))
	assert.False(t, IsValidPaymentMethod(""))
}

// ============================================================================
// Invoice
// ============================================================================

func TestNewInvoice(t *testing.T) {
	created := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	addr := &Address{FullName: "Asha Rao"}
	o := &Order{
		ID:              "5f0c2b9e-1111-2222-3333-444455556666",
		TotalAmount:     300,
		PaymentMethod:   PaymentMethodCOD,
		PaymentStatus:   PaymentStatusPending,
		CreatedAt:       created,
		ShippingAddress: addr,
		Items: []OrderItem{
			{ProductID: 7, Quantity: 2, Price: 150, ProductName: "Tea"},
			{ProductID: 9, Quantity: 1, Price: 0},
		},
	}

	inv := NewInvoice(o)

	assert.Equal(t, "INV-20240309-5F0C2B9E", inv.InvoiceNumber)
	assert.Equal(t, o.ID, inv.OrderID)
	assert.Equal(t, addr, inv.BillTo)
	assert.Equal(t, int64(300), inv.Total)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, InvoiceLine{Name: "Tea", Quantity: 2, UnitPrice: 150, LineTotal: 300}, inv.Lines[0])
	assert.Equal(t, "Product #9", inv.Lines[1].Name)
}

// ============================================================================
// Dashboard
// ============================================================================

func TestApplyStatusCounts(t *testing.T) {
	var d DashboardStats
	d.ApplyStatusCounts(map[string]int{
		OrderStatusPending:    3,
		OrderStatusProcessing: 2,
		OrderStatusDelivered:  5,
		OrderStatusCancelled:  1,
	})

	assert.Equal(t, 11, d.TotalOrders)
	assert.Equal(t, 3, d.PendingOrders)
	assert.Equal(t, 2, d.ProcessingOrders)
	assert.Equal(t, 5, d.DeliveredOrders)
	assert.Equal(t, 1, d.CancelledOrders)
}
