package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
)

// AuthHandler serves shop and admin sign-in.
type AuthHandler struct {
	service *service.AuthService
	shop    *SessionAuth
	admin   *SessionAuth
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, shop, admin *SessionAuth, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, shop: shop, admin: admin, logger: logger}
}

// --- Request DTOs ---

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type OTPVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}

// --- Response DTOs ---

type customerSessionResponse struct {
	User      *domain.Customer `json:"user"`
	Session   domain.Session   `json:"session"`
	Token     string           `json:"token,omitempty"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
}

type staffSessionResponse struct {
	User      *domain.Staff  `json:"user"`
	Session   domain.Session `json:"session"`
	Token     string         `json:"token,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
}

// --- Shop handlers ---

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	customer, issued, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.shop.SetCookie(w, issued.Token, issued.ExpiresAt)
	httputil.WriteData(w, http.StatusCreated, shopResponse(customer, issued))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	customer, issued, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.shop.SetCookie(w, issued.Token, issued.ExpiresAt)
	httputil.WriteData(w, http.StatusOK, shopResponse(customer, issued))
}

// RequestOTP handles POST /api/v1/auth/otp/request. The answer is the same
// whether or not the address has an account.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.service.RequestOTP(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// VerifyOTP handles POST /api/v1/auth/otp/verify.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPVerifyRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	customer, issued, err := h.service.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.shop.SetCookie(w, issued.Token, issued.ExpiresAt)
	httputil.WriteData(w, http.StatusOK, shopResponse(customer, issued))
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.shop.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/v1/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	customer, err := h.service.Customer(r.Context(), session.ID())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, customerSessionResponse{User: customer, Session: session})
}

// --- Admin handlers ---

// AdminLogin handles POST /api/v1/admin/auth/login.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	staff, issued, err := h.service.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	session, err := domain.NewAdminSession(staff.ID, staff.Role)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.admin.SetCookie(w, issued.Token, issued.ExpiresAt)
	httputil.WriteData(w, http.StatusOK, staffSessionResponse{
		User:      staff,
		Session:   session,
		Token:     issued.Token,
		ExpiresAt: &issued.ExpiresAt,
	})
}

// AdminLogout handles POST /api/v1/admin/auth/logout.
func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.admin.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// AdminSession handles GET /api/v1/admin/auth/session.
func (h *AuthHandler) AdminSession(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	staff, err := h.service.Staff(r.Context(), session.ID())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, staffSessionResponse{User: staff, Session: session})
}

func shopResponse(c *domain.Customer, issued *service.IssuedSession) customerSessionResponse {
	// Customer ids always produce a valid session.
	session, _ := domain.NewUserSession(c.ID)
	return customerSessionResponse{
		User:      c,
		Session:   session,
		Token:     issued.Token,
		ExpiresAt: &issued.ExpiresAt,
	}
}
