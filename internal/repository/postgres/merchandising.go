package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// categoryJSON renders the joined category c, or NULL when the join missed.
const categoryJSON = `CASE WHEN c.id IS NULL THEN NULL ELSE JSONB_BUILD_OBJECT(
			'id', c.id, 'name', c.name, 'slug', c.slug, 'description', c.description,
			'image', c.image, 'parentId', c.parent_id, 'sortOrder', c.sort_order, 'published', c.published
		) END AS category`

func decodeCategory(raw []byte) (*domain.Category, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var c domain.Category
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal category: %w", err)
	}
	return &c, nil
}

// --- Category grids ---

// CategoryGridRepository implements repository.CategoryGridRepository using PostgreSQL.
type CategoryGridRepository struct {
	pool database.DBTX
}

// NewCategoryGridRepository creates a new PostgreSQL-backed category grid repository.
func NewCategoryGridRepository(pool database.DBTX) *CategoryGridRepository {
	return &CategoryGridRepository{pool: pool}
}

const gridSelect = `
		SELECT g.id, g.category_id, g."order", g.is_visible, g.created_at, g.updated_at, ` + categoryJSON + `
		FROM category_grids g
		LEFT JOIN categories c ON c.id = g.category_id`

// List returns grids ordered by position, optionally only visible ones.
func (r *CategoryGridRepository) List(ctx context.Context, visibleOnly bool) ([]domain.CategoryGrid, error) {
	query := gridSelect
	if visibleOnly {
		query += ` WHERE g.is_visible`
	}
	query += ` ORDER BY g."order", g.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list category grids: %w", err)
	}
	defer rows.Close()

	grids := make([]domain.CategoryGrid, 0)
	for rows.Next() {
		var g domain.CategoryGrid
		if err := scanGrid(rows, &g); err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category grid rows: %w", err)
	}
	return grids, nil
}

// GetByID retrieves a grid with its category.
func (r *CategoryGridRepository) GetByID(ctx context.Context, id int64) (*domain.CategoryGrid, error) {
	var g domain.CategoryGrid
	if err := scanGrid(r.pool.QueryRow(ctx, gridSelect+` WHERE g.id = $1`, id), &g); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category grid", id)
		}
		return nil, err
	}
	return &g, nil
}

// Create inserts a grid and sets its generated ID.
func (r *CategoryGridRepository) Create(ctx context.Context, g *domain.CategoryGrid) error {
	query := `
		INSERT INTO category_grids (category_id, "order", is_visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query, g.CategoryID, g.Order, g.IsVisible, g.CreatedAt, g.UpdatedAt).Scan(&g.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("category", g.CategoryID)
		}
		return fmt.Errorf("insert category grid: %w", err)
	}
	return nil
}

// Update saves a grid's category, position and visibility.
func (r *CategoryGridRepository) Update(ctx context.Context, g *domain.CategoryGrid) error {
	g.UpdatedAt = time.Now().UTC()

	ct, err := r.pool.Exec(ctx,
		`UPDATE category_grids SET category_id = $1, "order" = $2, is_visible = $3, updated_at = $4 WHERE id = $5`,
		g.CategoryID, g.Order, g.IsVisible, g.UpdatedAt, g.ID,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("category", g.CategoryID)
		}
		return fmt.Errorf("update category grid: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category grid", g.ID)
	}
	return nil
}

// Delete removes a grid.
func (r *CategoryGridRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM category_grids WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category grid: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category grid", id)
	}
	return nil
}

// Reorder assigns order = position for each id in one transaction. Any
// unknown id aborts the whole reorder.
func (r *CategoryGridRepository) Reorder(ctx context.Context, ids []int64) error {
	now := time.Now().UTC()
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for pos, id := range ids {
			ct, err := tx.Exec(ctx,
				`UPDATE category_grids SET "order" = $1, updated_at = $2 WHERE id = $3`,
				pos, now, id,
			)
			if err != nil {
				return fmt.Errorf("reorder category grid %d: %w", id, err)
			}
			if ct.RowsAffected() == 0 {
				return apperrors.NotFound("category grid", id)
			}
		}
		return nil
	})
}

func scanGrid(row pgx.Row, g *domain.CategoryGrid) error {
	var cat []byte
	if err := row.Scan(&g.ID, &g.CategoryID, &g.Order, &g.IsVisible, &g.CreatedAt, &g.UpdatedAt, &cat); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scan category grid: %w", err)
	}
	c, err := decodeCategory(cat)
	if err != nil {
		return err
	}
	g.Category = c
	return nil
}

// --- Homepage sections ---

// HomepageSectionRepository implements repository.HomepageSectionRepository using PostgreSQL.
type HomepageSectionRepository struct {
	pool database.DBTX
}

// NewHomepageSectionRepository creates a new PostgreSQL-backed homepage section repository.
func NewHomepageSectionRepository(pool database.DBTX) *HomepageSectionRepository {
	return &HomepageSectionRepository{pool: pool}
}

const sectionSelect = `
		SELECT s.id, s.name, s.type, s.category_id, s.sort_order, s.is_active, s.created_at, s.updated_at, ` + categoryJSON + `
		FROM homepage_sections s
		LEFT JOIN categories c ON c.id = s.category_id`

// List returns sections ordered by sort order, optionally only active ones.
func (r *HomepageSectionRepository) List(ctx context.Context, activeOnly bool) ([]domain.HomepageSection, error) {
	query := sectionSelect
	if activeOnly {
		query += ` WHERE s.is_active`
	}
	query += ` ORDER BY s.sort_order, s.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list homepage sections: %w", err)
	}
	defer rows.Close()

	sections := make([]domain.HomepageSection, 0)
	for rows.Next() {
		var s domain.HomepageSection
		if err := scanSection(rows, &s); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate homepage section rows: %w", err)
	}
	return sections, nil
}

// GetByID retrieves a section with its category.
func (r *HomepageSectionRepository) GetByID(ctx context.Context, id int64) (*domain.HomepageSection, error) {
	var s domain.HomepageSection
	if err := scanSection(r.pool.QueryRow(ctx, sectionSelect+` WHERE s.id = $1`, id), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("homepage section", id)
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a section and sets its generated ID.
func (r *HomepageSectionRepository) Create(ctx context.Context, s *domain.HomepageSection) error {
	query := `
		INSERT INTO homepage_sections (name, type, category_id, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		s.Name, s.Type, s.CategoryID, s.SortOrder, s.IsActive, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.InvalidInput("category does not exist")
		}
		return fmt.Errorf("insert homepage section: %w", err)
	}
	return nil
}

// Update modifies a section.
func (r *HomepageSectionRepository) Update(ctx context.Context, s *domain.HomepageSection) error {
	s.UpdatedAt = time.Now().UTC()

	ct, err := r.pool.Exec(ctx, `
		UPDATE homepage_sections
		SET name = $1, type = $2, category_id = $3, sort_order = $4, is_active = $5, updated_at = $6
		WHERE id = $7`,
		s.Name, s.Type, s.CategoryID, s.SortOrder, s.IsActive, s.UpdatedAt, s.ID,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.InvalidInput("category does not exist")
		}
		return fmt.Errorf("update homepage section: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("homepage section", s.ID)
	}
	return nil
}

// Delete removes a section.
func (r *HomepageSectionRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM homepage_sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete homepage section: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("homepage section", id)
	}
	return nil
}

func scanSection(row pgx.Row, s *domain.HomepageSection) error {
	var cat []byte
	if err := row.Scan(&s.ID, &s.Name, &s.Type, &s.CategoryID, &s.SortOrder, &s.IsActive, &s.CreatedAt, &s.UpdatedAt, &cat); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scan homepage section: %w", err)
	}
	c, err := decodeCategory(cat)
	if err != nil {
		return err
	}
	s.Category = c
	return nil
}
