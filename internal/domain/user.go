package domain

import "time"

// Role distinguishes citizens from administrators.
type Role string

const (
	RoleMasyarakat Role = "masyarakat"
	RoleAdmin      Role = "admin"
)

// ValidRole reports whether the value belongs to the role enumeration.
func ValidRole(r Role) bool {
	return r == RoleMasyarakat || r == RoleAdmin
}

// RoleOption describes a role for the static listing endpoint.
type RoleOption struct {
	Value       Role   `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// RoleOptions returns the selectable roles.
func RoleOptions() []RoleOption {
	return []RoleOption{
		{Value: RoleMasyarakat, Label: "Masyarakat", Description: "User biasa yang bisa membuat pengaduan"},
		{Value: RoleAdmin, Label: "Administrator", Description: "Admin yang bisa mengelola pengaduan dan user"},
	}
}

// User is the account record. Deactivation is a soft delete: the row stays,
// IsActive flips to false and login is refused.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	Name         *string
	Phone        *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
