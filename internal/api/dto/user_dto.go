package dto

import (
	"time"

	"github.com/spec-kit/pengaduan-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Role     string  `json:"role"`
	Name     *string `json:"nama"`
	Phone    *string `json:"noHp"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries self-service profile changes.
type UpdateProfileRequest struct {
	Name  *string `json:"nama"`
	Email *string `json:"email"`
	Phone *string `json:"nomor_hp"`
}

// UpdateUserRequest carries admin-side account changes.
type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"nama"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// UpdatePasswordRequest payload for password changes.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// UserResponse is the public account shape (never carries the hash).
type UserResponse struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Name      *string     `json:"nama"`
	Phone     *string     `json:"nomor_hp"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// LoginResponse bundles the public user record with the issued token.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// UserStatsResponse is the admin account summary.
type UserStatsResponse struct {
	TotalUsers      int64            `json:"totalUsers"`
	ActiveUsers     int64            `json:"activeUsers"`
	InactiveUsers   int64            `json:"inactiveUsers"`
	AdminUsers      int64            `json:"adminUsers"`
	MasyarakatUsers int64            `json:"masyarakatUsers"`
	UsersByRole     map[string]int64 `json:"usersByRole"`
	UsersByStatus   map[string]int64 `json:"usersByStatus"`
}

// NewUserResponse maps a domain user to its public shape.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Name:      user.Name,
		Phone:     user.Phone,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
