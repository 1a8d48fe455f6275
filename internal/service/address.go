package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// AddressService manages a customer's saved addresses.
type AddressService struct {
	repo   repository.AddressRepository
	logger *slog.Logger
}

// NewAddressService creates a new address service.
func NewAddressService(repo repository.AddressRepository, logger *slog.Logger) *AddressService {
	return &AddressService{
		repo:   repo,
		logger: logger,
	}
}

// AddressInput holds address fields. On update nil pointers keep the stored
// value.
type AddressInput struct {
	FullName     *string
	PhoneNumber  *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	PostalCode   *string
	IsDefault    *bool
	AddressLabel *string
	CustomLabel  *string
}

// ListAddresses returns the user's addresses, default first.
func (s *AddressService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	addresses, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

// CreateAddress saves a new address. The user's first address, or one
// created with IsDefault, becomes the only default.
func (s *AddressService) CreateAddress(ctx context.Context, userID string, input AddressInput) (*domain.Address, error) {
	now := time.Now().UTC()
	a := &domain.Address{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyAddressInput(a, input)

	if err := validateAddress(a); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	s.logger.InfoContext(ctx, "address created",
		slog.String("address_id", a.ID),
		slog.Bool("is_default", a.IsDefault),
	)
	return a, nil
}

// UpdateAddress patches one of the user's addresses.
func (s *AddressService) UpdateAddress(ctx context.Context, userID, id string, input AddressInput) (*domain.Address, error) {
	a, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get address for update: %w", err)
	}

	applyAddressInput(a, input)
	if err := validateAddress(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	return a, nil
}

// DeleteAddress removes one of the user's addresses.
func (s *AddressService) DeleteAddress(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return nil
}

// SetDefault makes id the user's only default address.
func (s *AddressService) SetDefault(ctx context.Context, userID, id string) (*domain.Address, error) {
	if err := s.repo.SetDefault(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("set default address: %w", err)
	}

	a, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get default address: %w", err)
	}
	return a, nil
}

func applyAddressInput(a *domain.Address, in AddressInput) {
	setTrimmed := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setTrimmed(&a.FullName, in.FullName)
	setTrimmed(&a.PhoneNumber, in.PhoneNumber)
	setTrimmed(&a.AddressLine1, in.AddressLine1)
	setTrimmed(&a.City, in.City)
	setTrimmed(&a.State, in.State)
	setTrimmed(&a.PostalCode, in.PostalCode)

	if in.AddressLine2 != nil {
		line2 := strings.TrimSpace(*in.AddressLine2)
		if line2 == "" {
			a.AddressLine2 = nil
		} else {
			a.AddressLine2 = &line2
		}
	}
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
	if in.AddressLabel != nil {
		a.AddressLabel = strings.ToUpper(strings.TrimSpace(*in.AddressLabel))
	}
	if in.CustomLabel != nil {
		custom := strings.TrimSpace(*in.CustomLabel)
		a.CustomLabel = &custom
	}
	a.NormalizeLabel()
}

func validateAddress(a *domain.Address) error {
	required := []struct {
		field, value string
	}{
		{"fullName", a.FullName},
		{"phoneNumber", a.PhoneNumber},
		{"addressLine1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
	}
	for _, r := range required {
		if r.value == "" {
			return apperrors.InvalidInput(r.field + " is required")
		}
	}
	if !domain.IsValidAddressLabel(a.AddressLabel) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid address label %q", a.AddressLabel))
	}
	return nil
}
