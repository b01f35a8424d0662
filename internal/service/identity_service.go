package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pengaduan-service/internal/auth"
	"github.com/spec-kit/pengaduan-service/internal/config"
	"github.com/spec-kit/pengaduan-service/internal/domain"
	"github.com/spec-kit/pengaduan-service/internal/repository"
	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

// IdentityService coordinates registration, login, profile and account
// management flows.
type IdentityService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewIdentityService builds the service.
func NewIdentityService(cfg config.AuthConfig, users repository.UserRepository) *IdentityService {
	return &IdentityService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterInput describes a registration payload.
type RegisterInput struct {
	Email    string
	Password string
	Role     domain.Role
	Name     *string
	Phone    *string
}

// ProfileUpdateInput carries optional self-service profile changes.
type ProfileUpdateInput struct {
	Email *string
	Name  *string
	Phone *string
}

// UserUpdateInput carries optional admin-side account changes.
type UserUpdateInput struct {
	Email    *string
	Name     *string
	Role     *domain.Role
	IsActive *bool
}

// Register creates a new account. Email uniqueness spans active and inactive
// rows so a deactivated address cannot be re-registered.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("Email dan password wajib diisi", nil)
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("Format email tidak valid", nil)
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("Password minimal 6 karakter", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleMasyarakat
	}
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("Role tidak valid. Pilihan: masyarakat, admin", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("Email sudah terdaftar")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         trimOptional(input.Name),
		Phone:        trimOptional(input.Phone),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates a user and issues a signed token. Unknown email and bad
// password produce the same generic message.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("Email dan password wajib diisi", nil)
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("Email atau password salah")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Akun tidak aktif. Hubungi administrator")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Email atau password salah")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// GetUser fetches an account by id.
func (s *IdentityService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User tidak ditemukan")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateProfile mutates the caller's own profile fields, re-checking email
// uniqueness on change.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID int64, input ProfileUpdateInput) (*domain.User, error) {
	return s.applyUpdate(ctx, userID, UserUpdateInput{Email: input.Email, Name: input.Name}, input.Phone)
}

// UpdateUser mutates account fields; role and active-flag changes come only
// through the admin route.
func (s *IdentityService) UpdateUser(ctx context.Context, id int64, input UserUpdateInput) (*domain.User, error) {
	return s.applyUpdate(ctx, id, input, nil)
}

func (s *IdentityService) applyUpdate(ctx context.Context, id int64, input UserUpdateInput, phone *string) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !emailPattern.MatchString(email) {
			return nil, apperrors.NewValidationError("Format email tidak valid", nil)
		}
		if email != user.Email {
			if other, err := s.users.GetByEmail(ctx, email); err == nil && other.ID != id {
				return nil, apperrors.NewConflict("Email sudah digunakan user lain")
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
		}
		user.Email = email
	}
	if input.Name != nil {
		user.Name = trimOptional(input.Name)
	}
	if phone != nil {
		user.Phone = trimOptional(phone)
	}
	if input.Role != nil {
		if !domain.ValidRole(*input.Role) {
			return nil, apperrors.NewValidationError("Role tidak valid. Pilihan: masyarakat, admin", nil)
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdatePassword verifies the current password before storing a new hash.
func (s *IdentityService) UpdatePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.NewValidationError("Password lama dan password baru wajib diisi", nil)
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("Password baru minimal 6 karakter", nil)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("Password lama tidak benar")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Deactivate soft-deletes an account; the row stays and login is refused.
func (s *IdentityService) Deactivate(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns a paginated account listing for admins.
func (s *IdentityService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return users, total, nil
}

// Stats returns the admin account summary.
func (s *IdentityService) Stats(ctx context.Context) (*repository.UserStats, error) {
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *IdentityService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func trimOptional(val *string) *string {
	if val == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
