package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// IdempotencyHeader lets a client retry checkout without a second order.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// OrderHandler handles checkout and order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CheckoutItemRequest is one submitted order line.
type CheckoutItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1,lte=100"`
	Price     int64 `json:"price" validate:"gte=0"`
}

// CheckoutRequest is the JSON body of POST /api/v1/checkout.
type CheckoutRequest struct {
	Items             []CheckoutItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
	TotalAmount       int64                 `json:"totalAmount" validate:"gte=0"`
	ShippingAddressID string                `json:"shippingAddressId" validate:"required,uuid"`
	PaymentMethod     string                `json:"paymentMethod" validate:"required,oneof=COD RAZORPAY"`
}

// UpdateStatusRequest is the JSON body for an admin status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PROCESSING DELIVERED CANCELLED"`
}

// --- Shop handlers ---

// Checkout handles POST /api/v1/checkout. A new order is 201; a replay of an
// Idempotency-Key already used by this user returns the same order with 200,
// or 409 if the body differs from the one that claimed the key.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if len(key) > maxIdempotencyKeyLength {
		httputil.WriteErrorCode(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "Idempotency-Key is too long")
		return
	}

	var req CheckoutRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	items := make([]service.PlaceOrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.PlaceOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	order, created, err := h.service.PlaceOrder(r.Context(), service.PlaceOrderInput{
		UserID:            userID(r),
		Items:             items,
		TotalAmount:       req.TotalAmount,
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     req.PaymentMethod,
		IdempotencyKey:    key,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	httputil.WriteData(w, status, order)
}

// ListMyOrders handles GET /api/v1/orders.
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r, pagination.DefaultParams().PerPage)

	orders, total, err := h.service.ListUserOrders(r.Context(), userID(r), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResult(orders, total, params))
}

// GetMyOrder handles GET /api/v1/orders/{id}.
func (h *OrderHandler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetUserOrder(r.Context(), userID(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// Invoice handles GET /api/v1/orders/{id}/invoice.
func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	invoice, err := h.service.Invoice(r.Context(), userID(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, invoice)
}

// --- Admin handlers ---

// ListOrders handles GET /api/v1/admin/orders?status=.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r, pagination.DefaultParams().PerPage)
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))

	orders, total, err := h.service.ListOrders(r.Context(), status, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResult(orders, total, params))
}

// GetOrder handles GET /api/v1/admin/orders/{id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/v1/admin/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}
