package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pengaduan-service/internal/domain"
	"github.com/spec-kit/pengaduan-service/internal/repository"
	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID int64
	Email  string
	Role   domain.Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// AuthMiddleware validates bearer tokens and loads principals. Every request
// re-fetches the user so role changes and deactivation take effect immediately.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.resolve(c)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// HandleOptional attaches a principal when a valid token is present and
// proceeds anonymously otherwise. Used on the public complaint endpoints.
func (m *AuthMiddleware) HandleOptional(c *fiber.Ctx) error {
	if principal, err := m.resolve(c); err == nil {
		c.Locals(principalKey, principal)
	}
	return c.Next()
}

func (m *AuthMiddleware) resolve(c *fiber.Ctx) (*Principal, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, apperrors.NewUnauthorized("Token akses diperlukan")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperrors.NewUnauthorized("Token akses diperlukan")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperrors.NewUnauthorized("Token sudah expired")
		}
		return nil, apperrors.NewUnauthorized("Token tidak valid")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("User tidak ditemukan")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("Akun tidak aktif")
	}

	return &Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// PrincipalFromContext retrieves the authenticated caller, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
