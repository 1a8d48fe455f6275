package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
)

// AddressHandler handles the shopper's address book.
type AddressHandler struct {
	service *service.AddressService
	logger  *slog.Logger
}

// NewAddressHandler creates a new address HTTP handler.
func NewAddressHandler(svc *service.AddressService, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{service: svc, logger: logger}
}

// AddressRequest is the JSON body for creating or patching an address.
// Required fields are enforced by the service so the same DTO serves PATCH.
type AddressRequest struct {
	FullName     *string `json:"fullName" validate:"omitempty,max=100"`
	PhoneNumber  *string `json:"phoneNumber" validate:"omitempty,max=20"`
	AddressLine1 *string `json:"addressLine1" validate:"omitempty,max=200"`
	AddressLine2 *string `json:"addressLine2" validate:"omitempty,max=200"`
	City         *string `json:"city" validate:"omitempty,max=100"`
	State        *string `json:"state" validate:"omitempty,max=100"`
	PostalCode   *string `json:"postalCode" validate:"omitempty,max=12"`
	IsDefault    *bool   `json:"isDefault"`
	AddressLabel *string `json:"addressLabel" validate:"omitempty,max=20"`
	CustomLabel  *string `json:"customLabel" validate:"omitempty,max=50"`
}

func (req AddressRequest) input() service.AddressInput {
	return service.AddressInput{
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		IsDefault:    req.IsDefault,
		AddressLabel: req.AddressLabel,
		CustomLabel:  req.CustomLabel,
	}
}

// ListAddresses handles GET /api/v1/addresses.
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.service.ListAddresses(r.Context(), userID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if addresses == nil {
		addresses = []domain.Address{}
	}

	httputil.WriteData(w, http.StatusOK, addresses)
}

// CreateAddress handles POST /api/v1/addresses.
func (h *AddressHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req AddressRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	address, err := h.service.CreateAddress(r.Context(), userID(r), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, address)
}

// UpdateAddress handles PATCH /api/v1/addresses/{id}.
func (h *AddressHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AddressRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	address, err := h.service.UpdateAddress(r.Context(), userID(r), id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, address)
}

// DeleteAddress handles DELETE /api/v1/addresses/{id}.
func (h *AddressHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteAddress(r.Context(), userID(r), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefault handles PUT /api/v1/addresses/{id}/default.
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	address, err := h.service.SetDefault(r.Context(), userID(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, address)
}
