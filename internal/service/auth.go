package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// BootstrapUsername is the staff account created on first start.
const BootstrapUsername = "admin"

// IssuedSession is a signed session token and its expiry.
type IssuedSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OTPConfig bounds one-time password issuance.
type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

// AuthService issues shop and admin sessions.
type AuthService struct {
	customers   repository.CustomerRepository
	staff       repository.StaffRepository
	otps        repository.OTPRepository
	hasher      *auth.Hasher
	shopTokens  *auth.SessionManager
	adminTokens *auth.SessionManager
	sender      auth.OTPSender
	otp         OTPConfig
	logger      *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	customers repository.CustomerRepository,
	staff repository.StaffRepository,
	otps repository.OTPRepository,
	hasher *auth.Hasher,
	shopTokens *auth.SessionManager,
	adminTokens *auth.SessionManager,
	sender auth.OTPSender,
	otp OTPConfig,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		customers:   customers,
		staff:       staff,
		otps:        otps,
		hasher:      hasher,
		shopTokens:  shopTokens,
		adminTokens: adminTokens,
		sender:      sender,
		otp:         otp,
		logger:      logger,
	}
}

// --- Shop ---

// RegisterInput holds the parameters for registering a shop customer.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.Customer, *IssuedSession, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, apperrors.InvalidInput("name is required")
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, nil, apperrors.InvalidInput(
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	customer := &domain.Customer{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, nil, fmt.Errorf("create customer: %w", err)
	}

	session, err := s.issueShop(customer.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "customer registered", slog.String("user_id", customer.ID))
	return customer, session, nil
}

// Login signs a customer in with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Customer, *IssuedSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, apperrors.InvalidInput("email and password are required")
	}

	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, nil, fmt.Errorf("get customer: %w", err)
	}
	// Accounts created through OTP have no password.
	if customer.PasswordHash == "" {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	ok, err := s.hasher.Check(customer.PasswordHash, password)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	session, err := s.issueShop(customer.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "customer logged in", slog.String("user_id", customer.ID))
	return customer, session, nil
}

// RequestOTP issues a fresh one-time password for email, replacing any
// pending one.
func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.otps.Save(ctx, email, auth.HashOTP(email, code), s.otp.TTL); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	if err := s.sender.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// VerifyOTP exchanges a valid code for a shop session. A first-time email
// gets a password-less customer account.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*domain.Customer, *IssuedSession, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}

	hash, attempts, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("code expired or was not requested")
		}
		return nil, nil, fmt.Errorf("get otp: %w", err)
	}
	if attempts >= s.otp.MaxAttempts {
		s.discardOTP(ctx, email)
		return nil, nil, apperrors.Unauthorized("too many attempts, request a new code")
	}

	if !auth.VerifyOTP(email, strings.TrimSpace(code), hash) {
		n, err := s.otps.IncrementAttempts(ctx, email)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("record otp attempt: %w", err)
		}
		if n >= s.otp.MaxAttempts {
			s.discardOTP(ctx, email)
		}
		return nil, nil, apperrors.Unauthorized("invalid code")
	}
	s.discardOTP(ctx, email)

	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("get customer: %w", err)
		}
		customer, err = s.createOTPCustomer(ctx, email)
		if err != nil {
			return nil, nil, err
		}
	}

	session, err := s.issueShop(customer.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "customer logged in with otp", slog.String("user_id", customer.ID))
	return customer, session, nil
}

// Customer returns the signed-in customer.
func (s *AuthService) Customer(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *AuthService) createOTPCustomer(ctx context.Context, email string) (*domain.Customer, error) {
	now := time.Now().UTC()
	c := &domain.Customer{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      email[:strings.IndexByte(email, '@')],
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.logger.InfoContext(ctx, "customer created from otp", slog.String("user_id", c.ID))
	return c, nil
}

func (s *AuthService) discardOTP(ctx context.Context, email string) {
	if err := s.otps.Delete(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to delete otp", slog.String("error", err.Error()))
	}
}

func (s *AuthService) issueShop(customerID string) (*IssuedSession, error) {
	sess, err := domain.NewUserSession(customerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	token, exp, err := s.shopTokens.Issue(sess)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &IssuedSession{Token: token, ExpiresAt: exp}, nil
}

// --- Admin ---

// AdminLogin signs a staff member in.
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (*domain.Staff, *IssuedSession, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, apperrors.InvalidInput("username and password are required")
	}

	member, err := s.staff.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("invalid username or password")
		}
		return nil, nil, fmt.Errorf("get staff: %w", err)
	}

	ok, err := s.hasher.Check(member.PasswordHash, password)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperrors.Unauthorized("invalid username or password")
	}

	sess, err := domain.NewAdminSession(member.ID, member.Role)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	token, exp, err := s.adminTokens.Issue(sess)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	s.logger.InfoContext(ctx, "staff logged in",
		slog.String("staff_id", member.ID),
		slog.String("role", member.Role),
	)
	return member, &IssuedSession{Token: token, ExpiresAt: exp}, nil
}

// Staff returns the signed-in staff member.
func (s *AuthService) Staff(ctx context.Context, id string) (*domain.Staff, error) {
	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return member, nil
}

// BootstrapAdmin creates a SUPERADMIN account when password is set and no
// staff exists yet. It reports whether an account was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, password string) (bool, error) {
	if password == "" {
		return false, nil
	}
	n, err := s.staff.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count staff: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	member := &domain.Staff{
		ID:           uuid.New().String(),
		Email:        BootstrapUsername + "@localhost",
		Username:     BootstrapUsername,
		Name:         "Administrator",
		Role:         domain.RoleSuperAdmin,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.staff.Create(ctx, member); err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}

	s.logger.InfoContext(ctx, "bootstrap admin created", slog.String("username", member.Username))
	return true, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.InvalidInput("a valid email is required")
	}
	return email, nil
}
