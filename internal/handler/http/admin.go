package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// AdminHandler handles customer and staff management and the dashboard.
type AdminHandler struct {
	service   *service.AdminService
	dashboard *service.DashboardService
	logger    *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.AdminService, dashboard *service.DashboardService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, dashboard: dashboard, logger: logger}
}

// --- Request DTOs ---

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,uuid"`
}

type CreateStaffRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Name     string `json:"name" validate:"required,max=100"`
	Role     string `json:"role" validate:"required,oneof=SUPERADMIN ADMIN MANAGER"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateStaffRequest struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=SUPERADMIN ADMIN MANAGER"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

type bulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// --- Dashboard ---

// Dashboard handles GET /api/v1/admin/dashboard.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, stats)
}

// --- Customers ---

// ListCustomers handles GET /api/v1/admin/customers.
func (h *AdminHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r, pagination.DefaultParams().PerPage)

	customers, total, err := h.service.ListCustomers(r.Context(), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResult(customers, total, params))
}

// DeleteCustomer handles DELETE /api/v1/admin/customers/{id}.
func (h *AdminHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCustomers handles POST /api/v1/admin/customers/bulk-delete.
func (h *AdminHandler) DeleteCustomers(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.DeleteCustomers(r.Context(), req.IDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, bulkDeleteResponse{Deleted: n})
}

// --- Staff ---

// ListStaff handles GET /api/v1/admin/staff.
func (h *AdminHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	actor, _ := SessionFromContext(r.Context())

	staff, err := h.service.ListStaff(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if staff == nil {
		staff = []domain.Staff{}
	}

	httputil.WriteData(w, http.StatusOK, staff)
}

// CreateStaff handles POST /api/v1/admin/staff.
func (h *AdminHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	actor, _ := SessionFromContext(r.Context())

	var req CreateStaffRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	member, err := h.service.CreateStaff(r.Context(), actor, service.StaffInput{
		Email:    req.Email,
		Username: req.Username,
		Name:     req.Name,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, member)
}

// UpdateStaff handles PATCH /api/v1/admin/staff/{id}.
func (h *AdminHandler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	actor, _ := SessionFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStaffRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	member, err := h.service.UpdateStaff(r.Context(), actor, id, service.StaffInput{
		Name:     req.Name,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, member)
}

// DeleteStaff handles DELETE /api/v1/admin/staff/{id}.
func (h *AdminHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	actor, _ := SessionFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteStaff(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteStaffMembers handles POST /api/v1/admin/staff/bulk-delete.
func (h *AdminHandler) DeleteStaffMembers(w http.ResponseWriter, r *http.Request) {
	actor, _ := SessionFromContext(r.Context())

	var req BulkDeleteRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.DeleteStaffMembers(r.Context(), actor, req.IDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, bulkDeleteResponse{Deleted: n})
}
