package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pengaduan-service/internal/api/dto"
	"github.com/spec-kit/pengaduan-service/internal/auth"
	"github.com/spec-kit/pengaduan-service/internal/domain"
	"github.com/spec-kit/pengaduan-service/internal/repository"
	"github.com/spec-kit/pengaduan-service/internal/service"
	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

// UsersHandler exposes auth and account management endpoints.
type UsersHandler struct {
	identity *service.IdentityService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(identity *service.IdentityService) *UsersHandler {
	return &UsersHandler{identity: identity}
}

// Register handles POST /api/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Email dan password wajib diisi", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, err := h.identity.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "User berhasil didaftarkan", dto.NewUserResponse(user))
}

// Login handles POST /api/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Email dan password wajib diisi", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, token, exp, err := h.identity.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Login berhasil", dto.LoginResponse{
		User:      dto.NewUserResponse(user),
		Token:     token,
		ExpiresAt: exp,
	})
}

// GetProfile handles GET /api/users/profile.
func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("User tidak terautentikasi")
	}
	user, err := h.identity.GetUser(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile berhasil diambil", dto.NewUserResponse(user))
}

// UpdateProfile handles PUT /api/users/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("User tidak terautentikasi")
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.identity.UpdateProfile(c.UserContext(), principal.UserID, service.ProfileUpdateInput{
		Email: req.Email,
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile berhasil diupdate", dto.NewUserResponse(user))
}

// List handles GET /api/users (admin only).
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter := repository.UserFilter{}
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.Role(roleStr)
		filter.Role = &role
	}
	if activeStr := c.Query("isActive"); activeStr != "" {
		active := activeStr == "true"
		filter.IsActive = &active
	}

	page := c.QueryInt("page", 1)
	if page <= 0 {
		page = 1
	}
	limit := c.QueryInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	users, total, err := h.identity.ListUsers(c.UserContext(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return respondPaged(c, "Data user berhasil diambil", items, &dto.PaginationResponse{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	})
}

// GetByID handles GET /api/users/:id.
func (h *UsersHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.identity.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Data user berhasil diambil", dto.NewUserResponse(user))
}

// Update handles PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.UserUpdateInput{Email: req.Email, Name: req.Name}

	// role and active-flag changes are an admin privilege
	principal, _ := auth.PrincipalFromContext(c)
	if principal.IsAdmin() {
		if req.Role != nil {
			role := domain.Role(*req.Role)
			input.Role = &role
		}
		input.IsActive = req.IsActive
	}

	user, err := h.identity.UpdateUser(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User berhasil diupdate", dto.NewUserResponse(user))
}

// UpdatePassword handles PUT /api/users/:id/password.
func (h *UsersHandler) UpdatePassword(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Password lama dan password baru wajib diisi", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	if err := h.identity.UpdatePassword(c.UserContext(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Password berhasil diupdate", nil)
}

// Delete handles DELETE /api/users/:id (soft delete, admin only).
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.identity.Deactivate(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User berhasil dihapus (dinonaktifkan)", dto.NewUserResponse(user))
}

// Roles handles GET /api/users/roles/list.
func (h *UsersHandler) Roles(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, "Daftar role berhasil diambil", domain.RoleOptions())
}

// Stats handles GET /api/users/stats/summary (admin only).
func (h *UsersHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.identity.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Statistik user berhasil diambil", dto.UserStatsResponse{
		TotalUsers:      stats.Total,
		ActiveUsers:     stats.Active,
		InactiveUsers:   stats.Total - stats.Active,
		AdminUsers:      stats.Admin,
		MasyarakatUsers: stats.Masyarakat,
		UsersByRole: map[string]int64{
			"admin":      stats.Admin,
			"masyarakat": stats.Masyarakat,
		},
		UsersByStatus: map[string]int64{
			"active":   stats.Active,
			"inactive": stats.Total - stats.Active,
		},
	})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("ID tidak valid", nil)
	}
	return id, nil
}
