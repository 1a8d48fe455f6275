package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

// Session cookie names, one per scope.
const (
	ShopCookie  = "shop_session"
	AdminCookie = "admin_session"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionFromContext returns the session stored by SessionAuth.Require.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey).(domain.Session)
	return s, ok && !s.IsZero()
}

// userID is the session id, or "" when the request is anonymous.
func userID(r *http.Request) string {
	s, _ := SessionFromContext(r.Context())
	return s.ID()
}

// SessionAuth authenticates one scope. A token minted for the other scope
// fails to parse because the audience differs.
type SessionAuth struct {
	tokens *auth.SessionManager
	cookie string
	secure bool
	logger *slog.Logger
}

// NewSessionAuth creates the authenticator for tokens' audience.
func NewSessionAuth(tokens *auth.SessionManager, cookie string, secure bool, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{tokens: tokens, cookie: cookie, secure: secure, logger: logger}
}

// Require rejects requests without a valid session with 401.
func (a *SessionAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := a.token(r)
		if raw == "" {
			httputil.WriteErrorCode(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		session, err := a.tokens.Parse(raw)
		if err != nil {
			a.logger.DebugContext(r.Context(), "session rejected",
				slog.String("scope", a.tokens.Audience()),
				slog.String("error", err.Error()),
			)
			httputil.WriteErrorCode(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		ctx = logger.WithSubject(ctx, session.ID(), a.tokens.Audience())
		l := logger.FromContext(ctx).With(
			slog.String("user_id", session.ID()),
			slog.String("scope", a.tokens.Audience()),
		)
		ctx = logger.NewContext(ctx, l)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole lets only admin sessions holding one of roles through.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := SessionFromContext(r.Context())
			if !ok || !s.HasRole(roles...) {
				httputil.WriteErrorCode(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// token prefers the Authorization header over the cookie.
func (a *SessionAuth) token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, value, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
		return ""
	}
	if c, err := r.Cookie(a.cookie); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie writes the session cookie.
func (a *SessionAuth) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (a *SessionAuth) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
