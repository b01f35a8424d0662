package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pengaduan-service/internal/domain"
	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

// RequireRole ensures the principal carries one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("User tidak terautentikasi")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("Akses ditolak. Role tidak memiliki izin")
		}
		return c.Next()
	}
}

// RequireOwnerOrAdmin allows admins through and otherwise requires the :id
// path parameter to match the principal's own id.
func RequireOwnerOrAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("User tidak terautentikasi")
		}
		if principal.IsAdmin() {
			return c.Next()
		}
		targetID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || targetID != principal.UserID {
			return apperrors.NewForbidden("Akses ditolak. Anda hanya bisa mengakses data sendiri")
		}
		return c.Next()
	}
}
