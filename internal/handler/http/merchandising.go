package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
)

// --- Request DTOs ---

type CreateGridRequest struct {
	CategoryID int64 `json:"categoryId" validate:"required,gt=0"`
	Order      *int  `json:"order" validate:"omitempty,gte=0"`
	IsVisible  *bool `json:"isVisible"`
}

type UpdateGridRequest struct {
	Order     *int  `json:"order" validate:"omitempty,gte=0"`
	IsVisible *bool `json:"isVisible"`
}

type ReorderGridsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type SectionRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=100"`
	Type       string `json:"type" validate:"omitempty,max=50"`
	CategoryID *int64 `json:"categoryId" validate:"omitempty,gt=0"`
	SortOrder  int    `json:"sortOrder"`
	IsActive   *bool  `json:"isActive"`
}

func (req SectionRequest) input() service.SectionInput {
	return service.SectionInput{
		Name:       req.Name,
		Type:       req.Type,
		CategoryID: req.CategoryID,
		SortOrder:  req.SortOrder,
		IsActive:   req.IsActive,
	}
}

// --- Category grids ---

// VisibleGrids handles GET /api/v1/category-grids.
func (h *CatalogHandler) VisibleGrids(w http.ResponseWriter, r *http.Request) {
	h.listGrids(w, r, true)
}

// ListGrids handles GET /api/v1/admin/category-grids.
func (h *CatalogHandler) ListGrids(w http.ResponseWriter, r *http.Request) {
	h.listGrids(w, r, false)
}

func (h *CatalogHandler) listGrids(w http.ResponseWriter, r *http.Request, visibleOnly bool) {
	grids, err := h.service.ListGrids(r.Context(), visibleOnly)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if grids == nil {
		grids = []domain.CategoryGrid{}
	}

	httputil.WriteData(w, http.StatusOK, grids)
}

// CreateGrid handles POST /api/v1/admin/category-grids.
func (h *CatalogHandler) CreateGrid(w http.ResponseWriter, r *http.Request) {
	var req CreateGridRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	grid, err := h.service.CreateGrid(r.Context(), service.GridInput{
		CategoryID: req.CategoryID,
		Order:      req.Order,
		IsVisible:  req.IsVisible,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, grid)
}

// UpdateGrid handles PATCH /api/v1/admin/category-grids/{id}.
func (h *CatalogHandler) UpdateGrid(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateGridRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	grid, err := h.service.UpdateGrid(r.Context(), id, service.GridInput{Order: req.Order, IsVisible: req.IsVisible})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, grid)
}

// DeleteGrid handles DELETE /api/v1/admin/category-grids/{id}.
func (h *CatalogHandler) DeleteGrid(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteGrid(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderGrids handles POST /api/v1/admin/category-grids/reorder.
func (h *CatalogHandler) ReorderGrids(w http.ResponseWriter, r *http.Request) {
	var req ReorderGridsRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ReorderGrids(r.Context(), req.IDs); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.listGrids(w, r, false)
}

// --- Homepage sections ---

// HomepageSections handles GET /api/v1/homepage-sections.
func (h *CatalogHandler) HomepageSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.service.HomepageSections(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if sections == nil {
		sections = []domain.HomepageSection{}
	}

	httputil.WriteData(w, http.StatusOK, sections)
}

// ListSections handles GET /api/v1/admin/homepage-sections.
func (h *CatalogHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.service.ListSections(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if sections == nil {
		sections = []domain.HomepageSection{}
	}

	httputil.WriteData(w, http.StatusOK, sections)
}

// CreateSection handles POST /api/v1/admin/homepage-sections.
func (h *CatalogHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req SectionRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	section, err := h.service.CreateSection(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, section)
}

// UpdateSection handles PUT /api/v1/admin/homepage-sections/{id}.
func (h *CatalogHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req SectionRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	section, err := h.service.UpdateSection(r.Context(), id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, section)
}

// DeleteSection handles DELETE /api/v1/admin/homepage-sections/{id}.
func (h *CatalogHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteSection(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
