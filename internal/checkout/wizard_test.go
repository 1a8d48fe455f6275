package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

// ============================================================================
// Fakes
// ============================================================================

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, key string, req OrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, key, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type mockCart struct {
	mock.Mock
}

func (m *mockCart) Lines(ctx context.Context) ([]Line, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Line), args.Error(1)
}

func (m *mockCart) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var lampLines = []Line{{ProductID: 7, Name: "Brass Lamp", Quantity: 2, Price: 150}}

// atReview walks a fresh wizard to REVIEW with COD selected.
func atReview(t *testing.T, sub Submitter, cart Cart) *Wizard {
	t.Helper()
	w := New(sub, cart)
	require.NoError(t, w.SelectAddress("addr-1"))
	require.NoError(t, w.Continue())
	require.NoError(t, w.SelectPaymentMethod(domain.PaymentMethodCOD))
	require.NoError(t, w.Continue())
	require.Equal(t, StepReview, w.Step())
	return w
}

// ============================================================================
// Transitions
// ============================================================================

func TestWizard_StartsAtAddress(t *testing.T) {
	w := New(&mockSubmitter{}, &mockCart{})
	assert.Equal(t, StepAddress, w.Step())
}

func TestWizard_ContinueWithoutAddress(t *testing.T) {
	w := New(&mockSubmitter{}, &mockCart{})

	err := w.Continue()
	assert.ErrorIs(t, err, ErrNoAddress)
	assert.Equal(t, StepAddress, w.Step())
}

func TestWizard_ContinueWithoutPaymentMethod(t *testing.T) {
	w := New(&mockSubmitter{}, &mockCart{})
	require.NoError(t, w.SelectAddress("addr-1"))
	require.NoError(t, w.Continue())

	err := w.Continue()
	assert.ErrorIs(t, err, ErrNoPaymentMethod)
	assert.Equal(t, StepPayment, w.Step())
}

func TestWizard_BackKeepsSelections(t *testing.T) {
	w := atReview(t, &mockSubmitter{}, &mockCart{})

	require.NoError(t, w.Back())
	assert.Equal(t, StepPayment, w.Step())
	require.NoError(t, w.Back())
	assert.Equal(t, StepAddress, w.Step())

	assert.Equal(t, "addr-1", w.AddressID())
	assert.Equal(t, domain.PaymentMethodCOD, w.PaymentMethod())

	err := w.Back()
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Equal(t, StepAddress, w.Step())
}

func TestWizard_SelectionsOnlyAtTheirStep(t *testing.T) {
	w := New(&mockSubmitter{}, &mockCart{})

	assert.ErrorIs(t, w.SelectPaymentMethod(domain.PaymentMethodCOD), ErrIllegalMove)

	require.NoError(t, w.SelectAddress("addr-1"))
	require.NoError(t, w.Continue())
	assert.ErrorIs(t, w.SelectAddress("addr-2"), ErrIllegalMove)
	assert.Equal(t, "addr-1", w.AddressID())
}

func TestWizard_SelectPaymentMethod_RejectsUnknown(t *testing.T) {
	w := New(&mockSubmitter{}, &mockCart{})
	require.NoError(t, w.SelectAddress("addr-1"))
	require.NoError(t, w.Continue())

	assert.Error(t, w.SelectPaymentMethod("BITCOIN"))
	assert.Empty(t, w.PaymentMethod())
}

func TestWizard_ContinueFromReviewIsIllegal(t *testing.T) {
	w := atReview(t, &mockSubmitter{}, &mockCart{})

	assert.ErrorIs(t, w.Continue(), ErrIllegalMove)
	assert.Equal(t, StepReview, w.Step())
}

func TestWizard_PlaceOrderBeforeReview(t *testing.T) {
	sub := &mockSubmitter{}
	w := New(sub, &mockCart{})

	_, err := w.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrIllegalMove)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// PlaceOrder
// ============================================================================

func TestWizard_PlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	sub := &mockSubmitter{}
	cart := &mockCart{}
	w := atReview(t, sub, cart)

	expected := OrderRequest{
		Items:             []OrderLine{{ProductID: 7, Quantity: 2, Price: 150}},
		TotalAmount:       300,
		ShippingAddressID: "addr-1",
		PaymentMethod:     domain.PaymentMethodCOD,
	}
	order := &domain.Order{ID: "order-1", TotalAmount: 300, Status: domain.OrderStatusPending}

	cart.On("Lines", ctx).Return(lampLines, nil)
	sub.On("Submit", ctx, mock.AnythingOfType("string"), expected).Return(order, nil).Once()
	cart.On("Clear", ctx).Return(nil).Once()

	got, err := w.PlaceOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-1", got.ID)
	assert.Equal(t, StepSubmitted, w.Step())
	assert.Same(t, order, w.Order())

	// Terminal.
	assert.ErrorIs(t, w.Back(), ErrIllegalMove)
	assert.ErrorIs(t, w.Continue(), ErrIllegalMove)
	_, err = w.PlaceOrder(ctx)
	assert.ErrorIs(t, err, ErrIllegalMove)

	sub.AssertNumberOfCalls(t, "Submit", 1)
	cart.AssertExpectations(t)
}

func TestWizard_PlaceOrder_EmptyCartNeverSubmits(t *testing.T) {
	ctx := context.Background()
	sub := &mockSubmitter{}
	cart := &mockCart{}
	w := atReview(t, sub, cart)

	cart.On("Lines", ctx).Return([]Line{}, nil)

	_, err := w.PlaceOrder(ctx)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StepReview, w.Step())
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestWizard_PlaceOrder_FailureLeavesStateAndReusesKey(t *testing.T) {
	ctx := context.Background()
	sub := &mockSubmitter{}
	cart := &mockCart{}
	w := atReview(t, sub, cart)

	var keys []string
	cart.On("Lines", ctx).Return(lampLines, nil)
	sub.On("Submit", ctx, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(1)) }).
		Return(nil, errors.New("connection reset")).Once()
	sub.On("Submit", ctx, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(1)) }).
		Return(&domain.Order{ID: "order-1"}, nil).Once()
	cart.On("Clear", ctx).Return(nil).Once()

	_, err := w.PlaceOrder(ctx)
	require.Error(t, err)
	assert.Equal(t, StepReview, w.Step())
	assert.Nil(t, w.Order())
	cart.AssertNotCalled(t, "Clear", mock.Anything)

	got, err := w.PlaceOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-1", got.ID)

	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
	assert.NotEmpty(t, keys[0])
}

func TestWizard_PlaceOrder_ClearFailureStillSubmitted(t *testing.T) {
	ctx := context.Background()
	sub := &mockSubmitter{}
	cart := &mockCart{}
	w := atReview(t, sub, cart)

	cart.On("Lines", ctx).Return(lampLines, nil)
	sub.On("Submit", ctx, mock.Anything, mock.Anything).Return(&domain.Order{ID: "order-1"}, nil)
	cart.On("Clear", ctx).Return(errors.New("redis down"))

	got, err := w.PlaceOrder(ctx)
	require.Error(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "order-1", got.ID)
	assert.Equal(t, StepSubmitted, w.Step())
}

func TestWizards_UseDistinctKeys(t *testing.T) {
	a := New(&mockSubmitter{}, &mockCart{})
	b := New(&mockSubmitter{}, &mockCart{})
	assert.NotEqual(t, a.key, b.key)
}
