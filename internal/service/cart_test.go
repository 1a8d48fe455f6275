package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func newCartFixture() (*CartService, *mockCartRepository, *mockProductRepository) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	return NewCartService(carts, products, newTestLogger()), carts, products
}

func TestSetItem_AddsLine(t *testing.T) {
	svc, carts, products := newCartFixture()
	ctx := context.Background()

	lamp := brassLamp()
	products.On("GetByID", ctx, int64(7)).Return(&lamp, nil)
	carts.On("Get", ctx, testUserID).Return(domain.NewCart(testUserID), nil)
	carts.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.SetItem(ctx, testUserID, 7, 2)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Quantity(7))
}

func TestSetItem_ZeroRemovesLineThenReAddRestoresOne(t *testing.T) {
	svc, carts, products := newCartFixture()
	ctx := context.Background()

	stored := domain.NewCart(testUserID)
	require.NoError(t, stored.AddToCart(7, 3))

	lamp := brassLamp()
	products.On("GetByID", ctx, int64(7)).Return(&lamp, nil)
	carts.On("Get", ctx, testUserID).Return(stored, nil)
	carts.On("Save", ctx, stored).Return(nil)

	cart, err := svc.SetItem(ctx, testUserID, 7, 0)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.Quantity(7))
	products.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)

	cart, err = svc.SetItem(ctx, testUserID, 7, 1)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Quantity(7))
}

func TestSetItem_UnknownProduct(t *testing.T) {
	svc, carts, products := newCartFixture()
	ctx := context.Background()

	products.On("GetByID", ctx, int64(99)).Return(nil, apperrors.NotFound("product", int64(99)))

	_, err := svc.SetItem(ctx, testUserID, 99, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSetItem_OverLineLimit(t *testing.T) {
	svc, carts, products := newCartFixture()
	ctx := context.Background()

	lamp := brassLamp()
	products.On("GetByID", ctx, int64(7)).Return(&lamp, nil)
	carts.On("Get", ctx, testUserID).Return(domain.NewCart(testUserID), nil)

	_, err := svc.SetItem(ctx, testUserID, 7, domain.MaxQuantityPerLine+1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestItemQuantity_Absent(t *testing.T) {
	svc, carts, _ := newCartFixture()
	ctx := context.Background()

	carts.On("Get", ctx, testUserID).Return(domain.NewCart(testUserID), nil)

	n, err := svc.ItemQuantity(ctx, testUserID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestClearCart(t *testing.T) {
	svc, carts, _ := newCartFixture()
	ctx := context.Background()

	carts.On("Delete", ctx, testUserID).Return(nil)
	require.NoError(t, svc.ClearCart(ctx, testUserID))
	carts.AssertExpectations(t)
}
