package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1"`
}

type orderInput struct {
	Items         []lineInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string      `json:"paymentMethod" validate:"required,oneof=COD RAZORPAY"`
	Email         string      `json:"email" validate:"omitempty,email"`
	Note          string      `validate:"max=5"`
}

func validOrder() orderInput {
	return orderInput{
		Items:         []lineInput{{ProductID: 7, Quantity: 2}},
		PaymentMethod: "COD",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(validOrder()))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	in := validOrder()
	in.PaymentMethod = ""

	fields := fieldsOf(t, Validate(in))
	assert.Equal(t, "is required", fields["paymentMethod"])
}

func TestValidate_FallsBackToGoNameWithoutJSONTag(t *testing.T) {
	in := validOrder()
	in.Note = "too long"

	fields := fieldsOf(t, Validate(in))
	assert.Equal(t, "must be at most 5 characters", fields["Note"])
}

func TestValidate_EmptySlice(t *testing.T) {
	in := validOrder()
	in.Items = []lineInput{}

	fields := fieldsOf(t, Validate(in))
	assert.Equal(t, "must contain at least 1 item(s)", fields["items"])
}

func TestValidate_NestedItemPath(t *testing.T) {
	in := validOrder()
	in.Items = append(in.Items, lineInput{ProductID: 3, Quantity: 0})

	fields := fieldsOf(t, Validate(in))
	assert.Equal(t, "must be greater than or equal to 1", fields["items[1].quantity"])
}

func TestValidate_OneOf(t *testing.T) {
	in := validOrder()
	in.PaymentMethod = "CARD"

	fields := fieldsOf(t, Validate(in))
	assert.Contains(t, fields["paymentMethod"], "one of")
}

func TestValidate_Email(t *testing.T) {
	in := validOrder()
	in.Email = "nope"

	fields := fieldsOf(t, Validate(in))
	assert.Equal(t, "must be a valid email address", fields["email"])
}

func TestValidationError_ErrorString(t *testing.T) {
	in := validOrder()
	in.PaymentMethod = ""

	err := Validate(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'paymentMethod' is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"items":[{"productId":7,"quantity":2}],"paymentMethod":"COD"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var in orderInput
	require.NoError(t, DecodeAndValidate(req, &in))
	assert.Equal(t, int64(7), in.Items[0].ProductID)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var in orderInput
	err := DecodeAndValidate(req, &in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_UnknownField(t *testing.T) {
	body := `{"items":[{"productId":7,"quantity":2}],"paymentMethod":"COD","coupon":"X"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var in orderInput
	err := DecodeAndValidate(req, &in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coupon")
}
