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

const (
	addressColumns = `id, user_id, full_name, phone_number, address_line1, address_line2, city, state,
		postal_code, is_default, address_label, custom_label, created_at, updated_at`

	// defaultAddressIndex backs the one-default-per-user rule.
	defaultAddressIndex = "addresses_one_default_per_user"
)

// AddressRepository implements repository.AddressRepository using PostgreSQL.
type AddressRepository struct {
	pool database.DBTX
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool database.DBTX) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create inserts an address. The user's first address, or one flagged as
// default, becomes the only default within the same transaction.
func (r *AddressRepository) Create(ctx context.Context, a *domain.Address) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockUserAddresses(ctx, tx, a.UserID); err != nil {
			return err
		}

		if !a.IsDefault {
			var hasAny bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM addresses WHERE user_id = $1)`, a.UserID,
			).Scan(&hasAny); err != nil {
				return fmt.Errorf("count addresses: %w", err)
			}
			a.IsDefault = !hasAny
		}

		if a.IsDefault {
			if err := unsetDefault(ctx, tx, a.UserID, ""); err != nil {
				return err
			}
		}

		query := `INSERT INTO addresses (` + addressColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

		_, err := tx.Exec(ctx, query,
			a.ID,
			a.UserID,
			a.FullName,
			a.PhoneNumber,
			a.AddressLine1,
			a.AddressLine2,
			a.City,
			a.State,
			a.PostalCode,
			a.IsDefault,
			a.AddressLabel,
			a.CustomLabel,
			a.CreatedAt,
			a.UpdatedAt,
		)
		if err != nil {
			return mapAddressWriteError(err, "insert address")
		}
		return nil
	})
}

// GetByID retrieves an address owned by userID.
func (r *AddressRepository) GetByID(ctx context.Context, userID, id string) (*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`

	var a domain.Address
	if err := scanAddress(r.pool.QueryRow(ctx, query, id, userID), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("address", id)
		}
		return nil, fmt.Errorf("get address: %w", err)
	}
	return &a, nil
}

// ListByUserID returns the default address first, then newest first.
func (r *AddressRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]domain.Address, 0)
	for rows.Next() {
		var a domain.Address
		if err := scanAddress(rows, &a); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}
	return addresses, nil
}

// Update saves an address. Setting IsDefault unsets the flag on the user's
// other addresses in the same transaction.
func (r *AddressRepository) Update(ctx context.Context, a *domain.Address) error {
	a.UpdatedAt = time.Now().UTC()

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if a.IsDefault {
			if err := lockUserAddresses(ctx, tx, a.UserID); err != nil {
				return err
			}
			if err := unsetDefault(ctx, tx, a.UserID, a.ID); err != nil {
				return err
			}
		}

		query := `
			UPDATE addresses
			SET full_name = $1, phone_number = $2, address_line1 = $3, address_line2 = $4, city = $5,
			    state = $6, postal_code = $7, is_default = $8, address_label = $9, custom_label = $10, updated_at = $11
			WHERE id = $12 AND user_id = $13`

		ct, err := tx.Exec(ctx, query,
			a.FullName,
			a.PhoneNumber,
			a.AddressLine1,
			a.AddressLine2,
			a.City,
			a.State,
			a.PostalCode,
			a.IsDefault,
			a.AddressLabel,
			a.CustomLabel,
			a.UpdatedAt,
			a.ID,
			a.UserID,
		)
		if err != nil {
			return mapAddressWriteError(err, "update address")
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("address", a.ID)
		}
		return nil
	})
}

// Delete removes an address owned by userID. Addresses used by orders stay.
func (r *AddressRepository) Delete(ctx context.Context, userID, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.Conflict("ADDRESS_IN_USE", "address is used by an existing order")
		}
		return fmt.Errorf("delete address: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", id)
	}
	return nil
}

// SetDefault marks addressID as the user's default, unsetting any previous
// default within a transaction.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, addressID string) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockUserAddresses(ctx, tx, userID); err != nil {
			return err
		}
		if err := unsetDefault(ctx, tx, userID, addressID); err != nil {
			return err
		}

		ct, err := tx.Exec(ctx,
			`UPDATE addresses SET is_default = true, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
			addressID, userID,
		)
		if err != nil {
			return mapAddressWriteError(err, "set default address")
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("address", addressID)
		}
		return nil
	})
}

// lockUserAddresses serialises default changes for one user.
func lockUserAddresses(ctx context.Context, tx pgx.Tx, userID string) error {
	if _, err := tx.Exec(ctx, `SELECT id FROM addresses WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
		return fmt.Errorf("lock addresses: %w", err)
	}
	return nil
}

// unsetDefault clears the default flag on the user's addresses except keepID.
func unsetDefault(ctx context.Context, tx pgx.Tx, userID, keepID string) error {
	var err error
	if keepID == "" {
		_, err = tx.Exec(ctx,
			`UPDATE addresses SET is_default = false, updated_at = NOW() WHERE user_id = $1 AND is_default`,
			userID)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE addresses SET is_default = false, updated_at = NOW() WHERE user_id = $1 AND is_default AND id <> $2`,
			userID, keepID)
	}
	if err != nil {
		return fmt.Errorf("unset default address: %w", err)
	}
	return nil
}

func mapAddressWriteError(err error, op string) error {
	if database.IsUniqueViolation(err, defaultAddressIndex) {
		return apperrors.Conflict("DEFAULT_ADDRESS_CONFLICT", "another default address was set concurrently, please retry")
	}
	if database.IsForeignKeyViolation(err) {
		return apperrors.NotFound("customer", "")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanAddress(row pgx.Row, a *domain.Address) error {
	return row.Scan(
		&a.ID,
		&a.UserID,
		&a.FullName,
		&a.PhoneNumber,
		&a.AddressLine1,
		&a.AddressLine2,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.IsDefault,
		&a.AddressLabel,
		&a.CustomLabel,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}
