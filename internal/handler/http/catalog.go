package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// CatalogHandler handles product and category endpoints for both the shop
// and the back-office.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// ProductRequest is the JSON body for creating or replacing a product.
type ProductRequest struct {
	Name              string            `json:"name" validate:"required,min=1,max=200"`
	Slug              string            `json:"slug" validate:"omitempty,max=200"`
	Description       string            `json:"description" validate:"max=10000"`
	Price             int64             `json:"price" validate:"gte=0"`
	Stock             int               `json:"stock" validate:"gte=0"`
	Images            []string          `json:"images" validate:"max=20,dive,url"`
	CategoryIDs       []int64           `json:"categoryIds" validate:"dive,gt=0"`
	DefaultCategoryID *int64            `json:"defaultCategoryId" validate:"omitempty,gt=0"`
	Attributes        map[string]string `json:"attributes"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:              req.Name,
		Slug:              req.Slug,
		Description:       req.Description,
		Price:             req.Price,
		Stock:             req.Stock,
		Images:            req.Images,
		CategoryIDs:       req.CategoryIDs,
		DefaultCategoryID: req.DefaultCategoryID,
		Attributes:        req.Attributes,
	}
}

// CategoryRequest is the JSON body for creating or replacing a category.
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Slug        string  `json:"slug" validate:"omitempty,max=100"`
	Description string  `json:"description" validate:"max=2000"`
	Image       *string `json:"image" validate:"omitempty,url"`
	ParentID    *int64  `json:"parentId" validate:"omitempty,gt=0"`
	SortOrder   int     `json:"sortOrder"`
	Published   *bool   `json:"published"`
}

func (req CategoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Image:       req.Image,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		Published:   req.Published,
	}
}

// CartProductsRequest is the JSON body of POST /api/v1/cart-products.
type CartProductsRequest struct {
	ProductIDs []int64 `json:"productIds" validate:"required,min=1,max=100"`
}

// --- Products ---

// ListProducts handles GET /api/v1/products and GET /api/v1/admin/products.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r, pagination.DefaultParams().PerPage)
	filter := repository.ProductFilter{
		Search:  r.URL.Query().Get("search"),
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	products, total, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResult(products, total, params))
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// Search handles GET /api/v1/search.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r, service.SearchPageSize)
	params.PerPage = service.SearchPageSize

	products, total, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), params.Page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResult(products, total, params))
}

// CartProducts handles POST /api/v1/cart-products.
func (h *CatalogHandler) CartProducts(w http.ResponseWriter, r *http.Request) {
	var req CartProductsRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	products, err := h.service.ProductsByIDs(r.Context(), req.ProductIDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, products)
}

// CreateProduct handles POST /api/v1/admin/products.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}.
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ProductRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}.
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Categories ---

// CategoryTree handles GET /api/v1/categories.
func (h *CatalogHandler) CategoryTree(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r, pagination.DefaultParams().PerPage)

	roots, total, err := h.service.CategoryTree(r.Context(), true, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResult(roots, total, params))
}

// CategoryProducts handles GET /api/v1/categories/{id}/products.
func (h *CatalogHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	params := pagination.FromRequest(r, pagination.DefaultParams().PerPage)

	products, total, err := h.service.CategoryProducts(r.Context(), id, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResult(products, total, params))
}

// ListCategories handles GET /api/v1/admin/categories (flat, unpublished included).
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	httputil.WriteData(w, http.StatusOK, categories)
}

// GetCategory handles GET /api/v1/admin/categories/{id}.
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	category, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, category)
}

// CreateCategory handles POST /api/v1/admin/categories.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.CreateCategory(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/v1/admin/categories/{id}.
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CategoryRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/admin/categories/{id}.
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
