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
)

// ---------------------------------------------------------------------------
// Category grids
// ---------------------------------------------------------------------------

// GridInput holds the writable fields of a category grid tile. Nil pointers
// leave the stored value unchanged on update.
type GridInput struct {
	CategoryID int64
	Order      *int
	IsVisible  *bool
}

// ListGrids returns grid tiles ordered by position with their category.
func (s *CatalogService) ListGrids(ctx context.Context, visibleOnly bool) ([]domain.CategoryGrid, error) {
	grids, err := s.grids.List(ctx, visibleOnly)
	if err != nil {
		return nil, fmt.Errorf("list category grids: %w", err)
	}
	return grids, nil
}

// CreateGrid places a category on the grid. Visible defaults to true.
func (s *CatalogService) CreateGrid(ctx context.Context, input GridInput) (*domain.CategoryGrid, error) {
	if input.CategoryID <= 0 {
		return nil, apperrors.InvalidInput("categoryId is required")
	}
	exists, err := s.categories.Exists(ctx, input.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("category", input.CategoryID)
	}

	now := time.Now().UTC()
	g := &domain.CategoryGrid{
		CategoryID: input.CategoryID,
		IsVisible:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.Order != nil {
		g.Order = *input.Order
	}
	if input.IsVisible != nil {
		g.IsVisible = *input.IsVisible
	}

	if err := s.grids.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create category grid: %w", err)
	}
	return g, nil
}

// UpdateGrid patches a grid tile's order and visibility.
func (s *CatalogService) UpdateGrid(ctx context.Context, id int64, input GridInput) (*domain.CategoryGrid, error) {
	g, err := s.grids.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category grid for update: %w", err)
	}
	if input.Order != nil {
		g.Order = *input.Order
	}
	if input.IsVisible != nil {
		g.IsVisible = *input.IsVisible
	}

	if err := s.grids.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("update category grid: %w", err)
	}
	return g, nil
}

// DeleteGrid removes a grid tile.
func (s *CatalogService) DeleteGrid(ctx context.Context, id int64) error {
	if err := s.grids.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category grid: %w", err)
	}
	return nil
}

// ReorderGrids assigns each grid its position in ids.
func (s *CatalogService) ReorderGrids(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return apperrors.InvalidInput("ids must not be empty")
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return apperrors.InvalidInput(fmt.Sprintf("duplicate grid id %d", id))
		}
		seen[id] = true
	}

	if err := s.grids.Reorder(ctx, ids); err != nil {
		return fmt.Errorf("reorder category grids: %w", err)
	}
	s.logger.InfoContext(ctx, "category grids reordered", slog.Int("count", len(ids)))
	return nil
}

// ---------------------------------------------------------------------------
// Homepage sections
// ---------------------------------------------------------------------------

// SectionTypeCategory is the default homepage section kind.
const SectionTypeCategory = "category"

// SectionInput holds the writable fields of a homepage section.
type SectionInput struct {
	Name       string
	Type       string
	CategoryID *int64
	SortOrder  int
	IsActive   *bool
}

// HomepageSections returns active sections, each with up to
// domain.HomepageSectionProductLimit products of its category.
func (s *CatalogService) HomepageSections(ctx context.Context) ([]domain.HomepageSection, error) {
	sections, err := s.sections.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list homepage sections: %w", err)
	}

	for i := range sections {
		if sections[i].CategoryID == nil {
			sections[i].Products = []domain.Product{}
			continue
		}
		products, _, err := s.products.List(ctx, repository.ProductFilter{
			CategoryID: sections[i].CategoryID,
			Page:       1,
			PerPage:    domain.HomepageSectionProductLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("list section products: %w", err)
		}
		sections[i].Products = products
	}
	return sections, nil
}

// ListSections returns every section for the back-office, without products.
func (s *CatalogService) ListSections(ctx context.Context) ([]domain.HomepageSection, error) {
	sections, err := s.sections.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list homepage sections: %w", err)
	}
	return sections, nil
}

// CreateSection creates a homepage section. Active defaults to true.
func (s *CatalogService) CreateSection(ctx context.Context, input SectionInput) (*domain.HomepageSection, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("section name is required")
	}
	if err := s.checkSectionCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sec := &domain.HomepageSection{
		Name:       name,
		Type:       input.Type,
		CategoryID: input.CategoryID,
		SortOrder:  input.SortOrder,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if sec.Type == "" {
		sec.Type = SectionTypeCategory
	}
	if input.IsActive != nil {
		sec.IsActive = *input.IsActive
	}

	if err := s.sections.Create(ctx, sec); err != nil {
		return nil, fmt.Errorf("create homepage section: %w", err)
	}
	return sec, nil
}

// UpdateSection modifies a homepage section.
func (s *CatalogService) UpdateSection(ctx context.Context, id int64, input SectionInput) (*domain.HomepageSection, error) {
	sec, err := s.sections.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get homepage section for update: %w", err)
	}
	if err := s.checkSectionCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		sec.Name = name
	}
	if input.Type != "" {
		sec.Type = input.Type
	}
	sec.CategoryID = input.CategoryID
	sec.SortOrder = input.SortOrder
	if input.IsActive != nil {
		sec.IsActive = *input.IsActive
	}

	if err := s.sections.Update(ctx, sec); err != nil {
		return nil, fmt.Errorf("update homepage section: %w", err)
	}
	return sec, nil
}

// DeleteSection removes a homepage section.
func (s *CatalogService) DeleteSection(ctx context.Context, id int64) error {
	if err := s.sections.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete homepage section: %w", err)
	}
	return nil
}

func (s *CatalogService) checkSectionCategory(ctx context.Context, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	exists, err := s.categories.Exists(ctx, *categoryID)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return apperrors.NotFound("category", *categoryID)
	}
	return nil
}
