package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/slug"
)

// SearchPageSize is the fixed page size of the shop search endpoint.
const SearchPageSize = 24

// maxSlugAttempts bounds the numeric suffixes tried for a generated slug.
const maxSlugAttempts = 20

// CatalogService implements catalog reads for the shop and catalog writes
// for the back-office.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	grids      repository.CategoryGridRepository
	sections   repository.HomepageSectionRepository
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	grids repository.CategoryGridRepository,
	sections repository.HomepageSectionRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		grids:      grids,
		sections:   sections,
		logger:     logger,
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ProductInput holds the writable fields of a product.
type ProductInput struct {
	Name              string
	Slug              string
	Description       string
	Price             int64
	Stock             int
	Images            []string
	CategoryIDs       []int64
	DefaultCategoryID *int64
	Attributes        map[string]string
}

// ListProducts returns a page of products matching filter.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// GetProduct retrieves a product by its ID.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// Search matches q against product names and descriptions. A blank query
// yields an empty page without touching the store.
func (s *CatalogService) Search(ctx context.Context, q string, page int) ([]domain.Product, int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.Product{}, 0, nil
	}
	if page < 1 {
		page = 1
	}

	products, total, err := s.products.Search(ctx, q, page, SearchPageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("search products: %w", err)
	}
	return products, total, nil
}

// ProductsByIDs returns live data for the given product ids. Non-positive
// ids are dropped; an empty or all-invalid list is rejected.
func (s *CatalogService) ProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	valid := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, apperrors.InvalidInput("productIds must contain at least one valid id")
	}

	products, err := s.products.GetByIDs(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	return products, nil
}

// CreateProduct creates a product. An empty slug is derived from the name
// and made unique with a numeric suffix.
func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	productSlug, err := s.resolveSlug(ctx, input.Slug, input.Name, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		Name:              strings.TrimSpace(input.Name),
		Slug:              productSlug,
		Description:       input.Description,
		Price:             input.Price,
		Stock:             input.Stock,
		Images:            nonNilStrings(input.Images),
		CategoryIDs:       nonNilIDs(input.CategoryIDs),
		DefaultCategoryID: input.DefaultCategoryID,
		Attributes:        input.Attributes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.String("slug", product.Slug),
	)
	return product, nil
}

// UpdateProduct replaces a product's fields and category links.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	productSlug := product.Slug
	if input.Slug != "" && input.Slug != product.Slug {
		productSlug, err = s.resolveSlug(ctx, input.Slug, input.Name, id)
		if err != nil {
			return nil, err
		}
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Slug = productSlug
	product.Description = input.Description
	product.Price = input.Price
	product.Stock = input.Stock
	product.Images = nonNilStrings(input.Images)
	product.CategoryIDs = nonNilIDs(input.CategoryIDs)
	product.DefaultCategoryID = input.DefaultCategoryID
	product.Attributes = input.Attributes

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", id))
	return product, nil
}

// DeleteProduct removes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))
	return nil
}

// resolveSlug returns explicit as given (rejecting duplicates) or derives a
// free slug from name.
func (s *CatalogService) resolveSlug(ctx context.Context, explicit, name string, excludeID int64) (string, error) {
	if explicit != "" {
		explicit = slug.Generate(explicit)
		taken, err := s.products.SlugExists(ctx, explicit, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return "", apperrors.AlreadyExists("product", "slug", explicit)
		}
		return explicit, nil
	}

	base := slug.Generate(name)
	if base == "" {
		return "", apperrors.InvalidInput("name must contain at least one letter or digit")
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := slug.WithSuffix(base, n)
		taken, err := s.products.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperrors.AlreadyExists("product", "slug", base)
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.InvalidInput("product name is required")
	}
	if input.Price < 0 {
		return apperrors.InvalidInput("price must not be negative")
	}
	if input.Stock < 0 {
		return apperrors.InvalidInput("stock must not be negative")
	}
	return nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilIDs(v []int64) []int64 {
	if v == nil {
		return []int64{}
	}
	return v
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// CategoryInput holds the writable fields of a category.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	Image       *string
	ParentID    *int64
	SortOrder   int
	Published   *bool
}

// CategoryTree returns one page of root categories with their descendants.
// publishedOnly hides unpublished categories and their subtrees.
func (s *CatalogService) CategoryTree(ctx context.Context, publishedOnly bool, page, perPage int) ([]domain.Category, int, error) {
	flat, err := s.categories.List(ctx, publishedOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}

	roots := domain.BuildCategoryTree(flat)
	if publishedOnly {
		roots = dropOrphans(roots)
	}

	total := len(roots)
	if perPage <= 0 {
		return roots, total, nil
	}
	start := (page - 1) * perPage
	if page < 1 || start >= total {
		return []domain.Category{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return roots[start:end], total, nil
}

// dropOrphans keeps true roots only; a published child of an unpublished
// parent surfaces as a root in the tree and must stay hidden.
func dropOrphans(roots []domain.Category) []domain.Category {
	out := make([]domain.Category, 0, len(roots))
	for _, c := range roots {
		if c.ParentID == nil {
			out = append(out, c)
		}
	}
	return out
}

// ListCategories returns every category flat, for back-office tables.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory retrieves a category by its ID.
func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// CategoryProducts returns a page of products in a category.
func (s *CatalogService) CategoryProducts(ctx context.Context, categoryID int64, page, perPage int) ([]domain.Product, int, error) {
	exists, err := s.categories.Exists(ctx, categoryID)
	if err != nil {
		return nil, 0, fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return nil, 0, apperrors.NotFound("category", categoryID)
	}

	return s.ListProducts(ctx, repository.ProductFilter{
		CategoryID: &categoryID,
		Page:       page,
		PerPage:    perPage,
	})
}

// CreateCategory creates a category; published defaults to true.
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("category name is required")
	}

	categorySlug := slug.Generate(input.Slug)
	if categorySlug == "" {
		categorySlug = slug.Generate(name)
	}
	if categorySlug == "" {
		return nil, apperrors.InvalidInput("name must contain at least one letter or digit")
	}

	if input.ParentID != nil {
		if err := s.requireParent(ctx, *input.ParentID); err != nil {
			return nil, err
		}
	}

	published := true
	if input.Published != nil {
		published = *input.Published
	}

	now := time.Now().UTC()
	c := &domain.Category{
		Name:        name,
		Slug:        categorySlug,
		Description: input.Description,
		Image:       input.Image,
		ParentID:    input.ParentID,
		SortOrder:   input.SortOrder,
		Published:   published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.Int64("category_id", c.ID),
		slog.String("slug", c.Slug),
	)
	return c, nil
}

// UpdateCategory modifies a category. A category cannot become its own parent.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, input CategoryInput) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category for update: %w", err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		c.Name = name
	}
	if input.Slug != "" {
		c.Slug = slug.Generate(input.Slug)
	}
	if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, apperrors.InvalidInput("a category cannot be its own parent")
		}
		if err := s.requireParent(ctx, *input.ParentID); err != nil {
			return nil, err
		}
	}
	c.ParentID = input.ParentID
	c.Description = input.Description
	c.Image = input.Image
	c.SortOrder = input.SortOrder
	if input.Published != nil {
		c.Published = *input.Published
	}

	if err := s.categories.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.logger.InfoContext(ctx, "category deleted", slog.Int64("category_id", id))
	return nil
}

func (s *CatalogService) requireParent(ctx context.Context, parentID int64) error {
	exists, err := s.categories.Exists(ctx, parentID)
	if err != nil {
		return fmt.Errorf("check parent category: %w", err)
	}
	if !exists {
		return apperrors.InvalidInput(fmt.Sprintf("parent category %d does not exist", parentID))
	}
	return nil
}
