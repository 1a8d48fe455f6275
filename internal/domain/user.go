package domain

import "time"

// Role constants. Customers have a single role; staff roles are ranked.
const (
	RoleCustomer   = "customer"
	RoleSuperAdmin = "SUPERADMIN"
	RoleAdmin      = "ADMIN"
	RoleManager    = "MANAGER"
)

// StaffRoles returns the valid staff roles, highest first.
func StaffRoles() []string {
	return []string{RoleSuperAdmin, RoleAdmin, RoleManager}
}

// IsValidStaffRole checks whether role is a staff role.
func IsValidStaffRole(role string) bool {
	for _, r := range StaffRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// Customer is a shop user.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Staff is an admin back-office user.
type Staff struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
