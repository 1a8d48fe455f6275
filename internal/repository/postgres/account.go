package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CustomerRepository implements repository.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	pool database.DBTX
}

// NewCustomerRepository creates a new PostgreSQL-backed customer repository.
func NewCustomerRepository(pool database.DBTX) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO customers (id, email, name, phone, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Email,
		c.Name,
		c.Phone,
		c.PasswordHash,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("customer", "email", c.Email)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByEmail retrieves a customer by email address.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *CustomerRepository) getOne(ctx context.Context, where string, arg string) (*domain.Customer, error) {
	query := `SELECT id, email, name, phone, password_hash, created_at, updated_at FROM customers ` + where

	var c domain.Customer
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.Email, &c.Name, &c.Phone, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer", arg)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// List returns customers newest first with the total count.
func (r *CustomerRepository) List(ctx context.Context, page, perPage int) ([]domain.Customer, int, error) {
	limit, offset := limitOffset(page, perPage)
	query := `
		SELECT id, email, name, phone, created_at, updated_at, count(*) OVER() AS total_count
		FROM customers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var total int
	customers := make([]domain.Customer, 0)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Email, &c.Name, &c.Phone, &c.CreatedAt, &c.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan customer row: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customer rows: %w", err)
	}
	return customers, total, nil
}

// Delete removes a customer with their addresses and orders.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("customer", id)
	}
	return nil
}

// DeleteMany removes the listed customers and returns how many were deleted.
func (r *CustomerRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete customers: %w", err)
	}
	return ct.RowsAffected(), nil
}

// --- Staff ---

// StaffRepository implements repository.StaffRepository using PostgreSQL.
type StaffRepository struct {
	pool database.DBTX
}

// NewStaffRepository creates a new PostgreSQL-backed staff repository.
func NewStaffRepository(pool database.DBTX) *StaffRepository {
	return &StaffRepository{pool: pool}
}

const staffColumns = `id, email, username, name, role, password_hash, created_at, updated_at`

// Create inserts a staff member.
func (r *StaffRepository) Create(ctx context.Context, s *domain.Staff) error {
	query := `
		INSERT INTO staff (` + staffColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.Email, s.Username, s.Name, s.Role, s.PasswordHash, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "staff_username_key") {
			return apperrors.AlreadyExists("staff", "username", s.Username)
		}
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("staff", "email", s.Email)
		}
		return fmt.Errorf("insert staff: %w", err)
	}
	return nil
}

// GetByID retrieves a staff member by ID.
func (r *StaffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByUsername retrieves a staff member by username.
func (r *StaffRepository) GetByUsername(ctx context.Context, username string) (*domain.Staff, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *StaffRepository) getOne(ctx context.Context, where, arg string) (*domain.Staff, error) {
	var s domain.Staff
	err := r.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff `+where, arg).Scan(
		&s.ID, &s.Email, &s.Username, &s.Name, &s.Role, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("staff", arg)
		}
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return &s, nil
}

// List returns all staff, newest first.
func (r *StaffRepository) List(ctx context.Context) ([]domain.Staff, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	staff := make([]domain.Staff, 0)
	for rows.Next() {
		var s domain.Staff
		if err := rows.Scan(
			&s.ID, &s.Email, &s.Username, &s.Name, &s.Role, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan staff row: %w", err)
		}
		staff = append(staff, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff rows: %w", err)
	}
	return staff, nil
}

// Update saves name, role and password hash.
func (r *StaffRepository) Update(ctx context.Context, s *domain.Staff) error {
	s.UpdatedAt = time.Now().UTC()

	ct, err := r.pool.Exec(ctx,
		`UPDATE staff SET name = $1, role = $2, password_hash = $3, updated_at = $4 WHERE id = $5`,
		s.Name, s.Role, s.PasswordHash, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("staff", s.ID)
	}
	return nil
}

// Delete removes a staff member.
func (r *StaffRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("staff", id)
	}
	return nil
}

// DeleteMany removes the listed staff and returns how many were deleted.
func (r *StaffRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete staff: %w", err)
	}
	return ct.RowsAffected(), nil
}

// Count returns the number of staff accounts.
func (r *StaffRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}
	return n, nil
}
