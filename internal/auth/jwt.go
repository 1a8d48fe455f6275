package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/internal/domain"
)

// Token audiences. A token minted for one scope never validates in the other.
const (
	AudienceShop  = "shop"
	AudienceAdmin = "admin"
)

const issuer = "storefront"

// ErrInvalidToken is returned for any token that does not parse, has expired
// or belongs to another scope.
var ErrInvalidToken = errors.New("invalid session token")

// Claims represents the JWT claims of a session token.
type Claims struct {
	Type string `json:"typ"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates session tokens for one audience.
type SessionManager struct {
	secret   []byte
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a manager for audience signing with secret.
func NewSessionManager(secret, audience string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret:   []byte(secret),
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Audience returns the scope this manager serves.
func (m *SessionManager) Audience() string {
	return m.audience
}

// TTL returns how long issued tokens stay valid.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for s. The session kind must match the audience.
func (m *SessionManager) Issue(s domain.Session) (string, time.Time, error) {
	if err := m.checkKind(s.Type()); err != nil {
		return "", time.Time{}, err
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := &Claims{
		Type: s.Type(),
		Role: s.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID(),
			Audience:  jwt.ClaimStrings{m.audience},
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates tokenString and rebuilds the session it carries.
func (m *SessionManager) Parse(tokenString string) (domain.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithAudience(m.audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Session{}, ErrInvalidToken
	}
	if err := m.checkKind(claims.Type); err != nil {
		return domain.Session{}, err
	}

	var s domain.Session
	if claims.Type == domain.SessionTypeAdmin {
		s, err = domain.NewAdminSession(claims.Subject, claims.Role)
	} else {
		s, err = domain.NewUserSession(claims.Subject)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return s, nil
}

func (m *SessionManager) checkKind(kind string) error {
	want := domain.SessionTypeUser
	if m.audience == AudienceAdmin {
		want = domain.SessionTypeAdmin
	}
	if kind != want {
		return fmt.Errorf("%w: %s session on %s scope", ErrInvalidToken, kind, m.audience)
	}
	return nil
}
