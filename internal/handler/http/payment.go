package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
)

// PaymentHandler handles gateway order creation and payment verification.
type PaymentHandler struct {
	service *service.PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{service: svc, logger: logger}
}

type CreateGatewayOrderRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

type VerifyPaymentRequest struct {
	OrderID        string `json:"orderId" validate:"required,uuid"`
	GatewayOrderID string `json:"gatewayOrderId" validate:"required,max=100"`
	PaymentID      string `json:"paymentId" validate:"required,max=100"`
	Signature      string `json:"signature" validate:"required,hexadecimal,len=64"`
}

// CreateGatewayOrder handles POST /api/v1/payments/razorpay/orders.
func (h *PaymentHandler) CreateGatewayOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateGatewayOrderRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	gwOrder, err := h.service.CreateGatewayOrder(r.Context(), userID(r), req.OrderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, gwOrder)
}

// VerifyPayment handles POST /api/v1/payments/razorpay/verify.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.VerifyPayment(r.Context(), userID(r), service.VerifyPaymentInput{
		OrderID:        req.OrderID,
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}
