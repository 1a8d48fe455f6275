package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserSession(t *testing.T) {
	s, err := NewUserSession("u-1")

	require.NoError(t, err)
	assert.Equal(t, "u-1", s.ID())
	assert.Equal(t, SessionTypeUser, s.Type())
	assert.Equal(t, RoleCustomer, s.Role())
	assert.True(t, s.IsShopper())
	assert.False(t, s.IsAdmin())
	assert.False(t, s.HasRole(RoleAdmin))
}

func TestNewAdminSession(t *testing.T) {
	s, err := NewAdminSession("s-1", RoleManager)

	require.NoError(t, err)
	assert.True(t, s.IsAdmin())
	assert.True(t, s.HasRole(RoleSuperAdmin, RoleManager))
	assert.False(t, s.HasRole(RoleSuperAdmin))
}

func TestNewAdminSession_RejectsCustomerRole(t *testing.T) {
	_, err := NewAdminSession("s-1", RoleCustomer)
	assert.Error(t, err)
}

func TestNewSession_RejectsEmptyID(t *testing.T) {
	_, err := NewUserSession("")
	assert.Error(t, err)

	_, err = NewAdminSession("", RoleAdmin)
	assert.Error(t, err)
}

func TestSession_ZeroValue(t *testing.T) {
	var s Session
	assert.True(t, s.IsZero())
	assert.False(t, s.IsAdmin())
	assert.False(t, s.IsShopper())
}

func TestSession_JSONShape(t *testing.T) {
	s, err := NewAdminSession("s-1", RoleSuperAdmin)
	require.NoError(t, err)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s-1","type":"admin","role":"SUPERADMIN"}`, string(b))
}

func TestSession_UnmarshalRejectsMixedShapes(t *testing.T) {
	bad := []string{
		`{"id":"u-1","type":"user","role":"ADMIN"}`,
		`{"id":"s-1","type":"admin","role":"customer"}`,
		`{"id":"x","type":"guest","role":"customer"}`,
		`{"id":"","type":"user","role":"customer"}`,
	}
	for _, raw := range bad {
		var s Session
		assert.Error(t, json.Unmarshal([]byte(raw), &s), raw)
	}

	var s Session
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u-1","type":"user","role":"customer"}`), &s))
	assert.True(t, s.IsShopper())
}
