package domain

import (
	"encoding/json"
	"fmt"
)

// Session kinds. The kind decides which role values are legal.
const (
	SessionTypeUser  = "user"
	SessionTypeAdmin = "admin"
)

// Session identifies the caller of a request. It is either a shop session
// {type:"user", role:"customer"} or an admin session {type:"admin",
// role:SUPERADMIN|ADMIN|MANAGER}; the constructors are the only way to build
// one, so no other combination exists.
type Session struct {
	id   string
	kind string
	role string
}

// NewUserSession returns a shop session for a customer.
func NewUserSession(id string) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("user session: empty id")
	}
	return Session{id: id, kind: SessionTypeUser, role: RoleCustomer}, nil
}

// NewAdminSession returns an admin session for a staff member.
func NewAdminSession(id, role string) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("admin session: empty id")
	}
	if !IsValidStaffRole(role) {
		return Session{}, fmt.Errorf("admin session: invalid role %q", role)
	}
	return Session{id: id, kind: SessionTypeAdmin, role: role}, nil
}

// ID is the customer or staff id.
func (s Session) ID() string {
	return s.id
}

// Type is SessionTypeUser or SessionTypeAdmin.
func (s Session) Type() string {
	return s.kind
}

// Role is the staff role of an admin session, empty otherwise.
func (s Session) Role() string {
	return s.role
}

// IsZero reports whether s is the unauthenticated zero value.
func (s Session) IsZero() bool {
	return s.kind == ""
}

// IsAdmin reports whether s belongs to a staff member.
func (s Session) IsAdmin() bool {
	return s.kind == SessionTypeAdmin
}

// IsShopper reports whether s belongs to a customer.
func (s Session) IsShopper() bool {
	return s.kind == SessionTypeUser
}

// HasRole reports whether an admin session holds one of roles.
func (s Session) HasRole(roles ...string) bool {
	if !s.IsAdmin() {
		return false
	}
	for _, r := range roles {
		if s.role == r {
			return true
		}
	}
	return false
}

type sessionJSON struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Role string `json:"role"`
}

// MarshalJSON encodes s as {id, type, role}.
func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{ID: s.id, Type: s.kind, Role: s.role})
}

// UnmarshalJSON accepts only the two legal shapes.
func (s *Session) UnmarshalJSON(b []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var (
		parsed Session
		err    error
	)
	switch raw.Type {
	case SessionTypeUser:
		if raw.Role != RoleCustomer {
			return fmt.Errorf("user session: invalid role %q", raw.Role)
		}
		parsed, err = NewUserSession(raw.ID)
	case SessionTypeAdmin:
		parsed, err = NewAdminSession(raw.ID, raw.Role)
	default:
		return fmt.Errorf("session: unknown type %q", raw.Type)
	}
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
