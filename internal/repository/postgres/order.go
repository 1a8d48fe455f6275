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

// orderSelect loads orders with their items (product name and first image),
// shipping address and customer summary in one round trip.
const orderSelect = `
		SELECT o.id, o.user_id, o.total_amount, o.status, o.payment_method, o.payment_status,
		       o.shipping_address_id, o.gateway_order_id, o.gateway_payment_id, o.created_at, o.updated_at,
		       COALESCE(items.items, '[]'::jsonb) AS items,
		       CASE WHEN a.id IS NULL THEN NULL ELSE JSONB_BUILD_OBJECT(
		           'id', a.id, 'userId', a.user_id, 'fullName', a.full_name, 'phoneNumber', a.phone_number,
		           'addressLine1', a.address_line1, 'addressLine2', a.address_line2, 'city', a.city,
		           'state', a.state, 'postalCode', a.postal_code, 'isDefault', a.is_default,
		           'addressLabel', a.address_label, 'customLabel', a.custom_label,
		           'createdAt', a.created_at, 'updatedAt', a.updated_at
		       ) END AS shipping_address,
		       JSONB_BUILD_OBJECT('id', c.id, 'name', c.name, 'email', c.email) AS customer`

const orderFrom = `
		FROM orders o
		JOIN customers c ON c.id = o.user_id
		LEFT JOIN addresses a ON a.id = o.shipping_address_id
		LEFT JOIN LATERAL (
		    SELECT JSONB_AGG(JSONB_BUILD_OBJECT(
		        'id', oi.id, 'orderId', oi.order_id, 'productId', oi.product_id,
		        'quantity', oi.quantity, 'price', oi.price,
		        'productName', COALESCE(p.name, ''), 'productImage', COALESCE(p.images[1], '')
		    ) ORDER BY oi.id) AS items
		    FROM order_items oi
		    LEFT JOIN products p ON p.id = oi.product_id
		    WHERE oi.order_id = o.id
		) items ON TRUE`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order and its items and decrements stock for each line,
// atomically. A line whose product lacks stock aborts the whole order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		orderQuery := `
			INSERT INTO orders (id, user_id, total_amount, status, payment_method, payment_status, shipping_address_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

		_, err := tx.Exec(ctx, orderQuery,
			o.ID,
			o.UserID,
			o.TotalAmount,
			o.Status,
			o.PaymentMethod,
			o.PaymentStatus,
			o.ShippingAddressID,
			o.CreatedAt,
			o.UpdatedAt,
		)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperrors.NotFound("address", o.ShippingAddressID)
			}
			return fmt.Errorf("insert order: %w", err)
		}

		stockQuery := `UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $1`
		itemQuery := `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)`

		for _, item := range o.Items {
			ct, err := tx.Exec(ctx, stockQuery, item.Quantity, o.CreatedAt, item.ProductID)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if ct.RowsAffected() == 0 {
				return apperrors.Conflict("INSUFFICIENT_STOCK",
					fmt.Sprintf("product %d does not have %d units in stock", item.ProductID, item.Quantity))
			}

			if _, err := tx.Exec(ctx, itemQuery,
				item.ID,
				item.OrderID,
				item.ProductID,
				item.Quantity,
				item.Price,
			); err != nil {
				if database.IsForeignKeyViolation(err) {
					return apperrors.NotFound("product", item.ProductID)
				}
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves an order with its items and shipping address.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := orderSelect + orderFrom + ` WHERE o.id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id), nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, err
	}
	return o, nil
}

// List returns orders matching the filter, newest first, with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := limitOffset(filter.Page, filter.PerPage)
	query := fmt.Sprintf(`%s, count(*) OVER() AS total_count %s
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderSelect, orderFrom, whereClause, argIndex, argIndex+1,
	)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var total int
	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus moves an order from one status to another, failing with a
// conflict if it changed underneath. Cancelling restocks every line.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	now := time.Now().UTC()

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			to, now, id, from,
		)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.Conflict("STATUS_CHANGED", "order status changed concurrently, please reload")
		}

		if to == domain.OrderStatusCancelled {
			_, err := tx.Exec(ctx, `
				UPDATE products p
				SET stock = p.stock + oi.quantity, updated_at = $2
				FROM order_items oi
				WHERE oi.order_id = $1 AND oi.product_id = p.id`,
				id, now,
			)
			if err != nil {
				return fmt.Errorf("restock cancelled order: %w", err)
			}
		}
		return nil
	})
}

// SetGatewayOrderID records the payment gateway's order reference.
func (r *OrderRepository) SetGatewayOrderID(ctx context.Context, id, gatewayOrderID string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET gateway_order_id = $1, updated_at = $2 WHERE id = $3`,
		gatewayOrderID, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set gateway order id: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

// MarkPaid records the captured payment; a pending order moves to PROCESSING.
func (r *OrderRepository) MarkPaid(ctx context.Context, id, gatewayPaymentID string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = $1, gateway_payment_id = $2,
		    status = CASE WHEN status = $3 THEN $4 ELSE status END,
		    updated_at = $5
		WHERE id = $6`,
		domain.PaymentStatusPaid, gatewayPaymentID,
		domain.OrderStatusPending, domain.OrderStatusProcessing,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

// MarkPaymentFailed flags an unpaid order's payment as failed.
func (r *OrderRepository) MarkPaymentFailed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $1, updated_at = $2 WHERE id = $3 AND payment_status <> $4`,
		domain.PaymentStatusFailed, time.Now().UTC(), id, domain.PaymentStatusPaid,
	)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	return nil
}

// scanOrder reads one orderSelect row; total receives the window count when
// the query has one.
func scanOrder(row pgx.Row, total *int) (*domain.Order, error) {
	var (
		o            domain.Order
		itemsJSON    []byte
		addressJSON  []byte
		customerJSON []byte
	)

	dest := []any{
		&o.ID,
		&o.UserID,
		&o.TotalAmount,
		&o.Status,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.ShippingAddressID,
		&o.GatewayOrderID,
		&o.GatewayPaymentID,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
		&addressJSON,
		&customerJSON,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}

	if len(addressJSON) > 0 && string(addressJSON) != "null" {
		var addr domain.Address
		if err := json.Unmarshal(addressJSON, &addr); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
		o.ShippingAddress = &addr
	}

	if len(customerJSON) > 0 && string(customerJSON) != "null" {
		var u domain.OrderUser
		if err := json.Unmarshal(customerJSON, &u); err != nil {
			return nil, fmt.Errorf("unmarshal order customer: %w", err)
		}
		o.User = &u
	}

	return &o, nil
}
