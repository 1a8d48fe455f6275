package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const productColumns = `p.id, p.name, p.slug, p.description, p.price, p.stock, p.images,
		COALESCE(ARRAY(SELECT pc.category_id FROM product_categories pc WHERE pc.product_id = p.id ORDER BY pc.category_id), '{}') AS category_ids,
		p.default_category_id, p.attributes, p.created_at, p.updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a product and its category links in one transaction.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	attrs, err := marshalAttributes(p.Attributes)
	if err != nil {
		return err
	}

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO products (name, slug, description, price, stock, images, default_category_id, attributes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`

		err := tx.QueryRow(ctx, query,
			p.Name,
			p.Slug,
			p.Description,
			p.Price,
			p.Stock,
			p.Images,
			p.DefaultCategoryID,
			attrs,
			p.CreatedAt,
			p.UpdatedAt,
		).Scan(&p.ID)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.AlreadyExists("product", "slug", p.Slug)
			}
			if database.IsForeignKeyViolation(err) {
				return apperrors.InvalidInput("default category does not exist")
			}
			return fmt.Errorf("insert product: %w", err)
		}

		return linkCategories(ctx, tx, p.ID, p.CategoryIDs)
	})
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	var p domain.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetByIDs returns the products that exist among ids.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1) ORDER BY p.id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// List returns products matching the filter, highest id first, with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if s := strings.TrimSpace(filter.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d OR p.slug ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, likePattern(s))
		argIndex++
	}

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf(
			"(p.default_category_id = $%d OR EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id = $%d))",
			argIndex, argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := limitOffset(filter.Page, filter.PerPage)
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products p
		%s
		ORDER BY p.id DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIndex, argIndex+1,
	)
	args = append(args, limit, offset)

	return r.queryPage(ctx, query, args...)
}

// Search matches name and description case-insensitively, lowest id first.
func (r *ProductRepository) Search(ctx context.Context, q string, page, perPage int) ([]domain.Product, int, error) {
	limit, offset := limitOffset(page, perPage)
	query := `
		SELECT ` + productColumns + `, count(*) OVER() AS total_count
		FROM products p
		WHERE p.name ILIKE $1 OR p.description ILIKE $1
		ORDER BY p.id ASC
		LIMIT $2 OFFSET $3`

	return r.queryPage(ctx, query, likePattern(strings.TrimSpace(q)), limit, offset)
}

func (r *ProductRepository) queryPage(ctx context.Context, query string, args ...any) ([]domain.Product, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var total int
	products := make([]domain.Product, 0)
	for rows.Next() {
		var (
			p     domain.Product
			attrs []byte
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.Images,
			&p.CategoryIDs, &p.DefaultCategoryID, &attrs, &p.CreatedAt, &p.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		if err := unmarshalAttributes(attrs, &p); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, total, nil
}

// Update saves p and replaces its category links.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	attrs, err := marshalAttributes(p.Attributes)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE products
			SET name = $1, slug = $2, description = $3, price = $4, stock = $5, images = $6,
			    default_category_id = $7, attributes = $8, updated_at = $9
			WHERE id = $10`

		ct, err := tx.Exec(ctx, query,
			p.Name,
			p.Slug,
			p.Description,
			p.Price,
			p.Stock,
			p.Images,
			p.DefaultCategoryID,
			attrs,
			p.UpdatedAt,
			p.ID,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.AlreadyExists("product", "slug", p.Slug)
			}
			if database.IsForeignKeyViolation(err) {
				return apperrors.InvalidInput("default category does not exist")
			}
			return fmt.Errorf("update product: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("product", p.ID)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear product categories: %w", err)
		}
		return linkCategories(ctx, tx, p.ID, p.CategoryIDs)
	})
}

// Delete removes a product. Products referenced by orders cannot be deleted.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.Conflict("PRODUCT_IN_USE", fmt.Sprintf("product %d is referenced by orders", id))
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// SlugExists reports whether a product other than excludeID uses slug.
func (r *ProductRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE slug = $1 AND id <> $2)`, slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product slug: %w", err)
	}
	return exists, nil
}

func linkCategories(ctx context.Context, tx pgx.Tx, productID int64, categoryIDs []int64) error {
	for _, cid := range categoryIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			productID, cid,
		)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperrors.InvalidInput(fmt.Sprintf("category %d does not exist", cid))
			}
			return fmt.Errorf("link product category: %w", err)
		}
	}
	return nil
}

func scanProduct(row pgx.Row, p *domain.Product) error {
	var attrs []byte
	if err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.Images,
		&p.CategoryIDs, &p.DefaultCategoryID, &attrs, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return err
	}
	return unmarshalAttributes(attrs, p)
}

func marshalAttributes(attrs map[string]string) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal product attributes: %w", err)
	}
	return b, nil
}

func unmarshalAttributes(raw []byte, p *domain.Product) error {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.CategoryIDs == nil {
		p.CategoryIDs = []int64{}
	}
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
		return nil
	}
	if err := json.Unmarshal(raw, &p.Attributes); err != nil {
		return fmt.Errorf("unmarshal product attributes: %w", err)
	}
	return nil
}
