package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
)

// DashboardRepository implements repository.DashboardRepository using PostgreSQL.
type DashboardRepository struct {
	pool database.DBTX
}

// NewDashboardRepository creates a new PostgreSQL-backed dashboard repository.
func NewDashboardRepository(pool database.DBTX) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// StatusCounts returns the number of orders per status.
func (r *DashboardRepository) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// BestSellers ranks products by units ordered across all non-cancelled orders.
func (r *DashboardRepository) BestSellers(ctx context.Context, limit int) ([]domain.BestSeller, error) {
	query := `
		SELECT p.id, p.name, SUM(oi.quantity)::int AS quantity, p.price, COALESCE(p.images[1], '') AS image
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.status <> $1
		GROUP BY p.id, p.name, p.price, p.images
		ORDER BY quantity DESC, p.id
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, domain.OrderStatusCancelled, limit)
	if err != nil {
		return nil, fmt.Errorf("query best sellers: %w", err)
	}
	defer rows.Close()

	sellers := make([]domain.BestSeller, 0, limit)
	for rows.Next() {
		var b domain.BestSeller
		if err := rows.Scan(&b.ID, &b.Name, &b.Quantity, &b.Price, &b.Image); err != nil {
			return nil, fmt.Errorf("scan best seller: %w", err)
		}
		sellers = append(sellers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate best sellers: %w", err)
	}
	return sellers, nil
}
