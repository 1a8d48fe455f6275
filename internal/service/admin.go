package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// AdminService implements customer and staff management for the back-office.
type AdminService struct {
	customers repository.CustomerRepository
	staff     repository.StaffRepository
	hasher    *auth.Hasher
	logger    *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	customers repository.CustomerRepository,
	staff repository.StaffRepository,
	hasher *auth.Hasher,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		customers: customers,
		staff:     staff,
		hasher:    hasher,
		logger:    logger,
	}
}

// --- Customers ---

// ListCustomers returns a page of customers, newest first.
func (s *AdminService) ListCustomers(ctx context.Context, page, perPage int) ([]domain.Customer, int, error) {
	page, perPage = clampPage(page, perPage)
	customers, total, err := s.customers.List(ctx, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return customers, total, nil
}

// DeleteCustomer removes a customer.
func (s *AdminService) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	s.logger.InfoContext(ctx, "customer deleted", slog.String("user_id", id))
	return nil
}

// DeleteCustomers removes several customers and returns how many existed.
func (s *AdminService) DeleteCustomers(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.InvalidInput("ids must not be empty")
	}
	n, err := s.customers.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete customers: %w", err)
	}
	s.logger.InfoContext(ctx, "customers deleted", slog.Int64("count", n))
	return n, nil
}

// --- Staff ---

// StaffInput holds staff fields. On update empty values keep the stored one.
type StaffInput struct {
	Email    string
	Username string
	Name     string
	Role     string
	Password string
}

// ListStaff returns every staff member. Only SUPERADMIN may manage staff.
func (s *AdminService) ListStaff(ctx context.Context, actor domain.Session) ([]domain.Staff, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	members, err := s.staff.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return members, nil
}

// CreateStaff adds a staff member.
func (s *AdminService) CreateStaff(ctx context.Context, actor domain.Session, input StaffInput) (*domain.Staff, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if !domain.IsValidStaffRole(input.Role) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid role %q", input.Role))
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	member := &domain.Staff{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		Name:         strings.TrimSpace(input.Name),
		Role:         input.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.staff.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("create staff: %w", err)
	}

	s.logger.InfoContext(ctx, "staff created",
		slog.String("staff_id", member.ID),
		slog.String("role", member.Role),
	)
	return member, nil
}

// UpdateStaff changes a staff member's name, role or password.
func (s *AdminService) UpdateStaff(ctx context.Context, actor domain.Session, id string, input StaffInput) (*domain.Staff, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}

	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get staff for update: %w", err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		member.Name = name
	}
	if input.Role != "" {
		if !domain.IsValidStaffRole(input.Role) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid role %q", input.Role))
		}
		member.Role = input.Role
	}
	if input.Password != "" {
		if len(input.Password) < auth.MinPasswordLength {
			return nil, apperrors.InvalidInput(
				fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		}
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, err
		}
		member.PasswordHash = hash
	}
	member.UpdatedAt = time.Now().UTC()

	if err := s.staff.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update staff: %w", err)
	}
	return member, nil
}

// DeleteStaff removes a staff member other than the actor.
func (s *AdminService) DeleteStaff(ctx context.Context, actor domain.Session, id string) error {
	if err := requireSuperAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID() {
		return apperrors.InvalidInput("you cannot delete your own account")
	}
	if err := s.staff.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	s.logger.InfoContext(ctx, "staff deleted", slog.String("staff_id", id))
	return nil
}

// DeleteStaffMembers removes several staff members; the actor's own id is
// rejected.
func (s *AdminService) DeleteStaffMembers(ctx context.Context, actor domain.Session, ids []string) (int64, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, apperrors.InvalidInput("ids must not be empty")
	}
	for _, id := range ids {
		if id == actor.ID() {
			return 0, apperrors.InvalidInput("you cannot delete your own account")
		}
	}

	n, err := s.staff.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete staff: %w", err)
	}
	return n, nil
}

func requireSuperAdmin(actor domain.Session) error {
	if !actor.IsAdmin() || !actor.HasRole(domain.RoleSuperAdmin) {
		return apperrors.Forbidden("staff management requires the SUPERADMIN role")
	}
	return nil
}
