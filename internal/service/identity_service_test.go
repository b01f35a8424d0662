package service

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pengaduan-service/internal/config"
	"github.com/spec-kit/pengaduan-service/internal/domain"
	"github.com/spec-kit/pengaduan-service/internal/repository"
)

type fakeUserRepo struct {
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, _ repository.UserFilter) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) Count(_ context.Context, _ repository.UserFilter) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) Stats(_ context.Context) (*repository.UserStats, error) {
	stats := &repository.UserStats{}
	for _, user := range r.users {
		stats.Total++
		if user.IsActive {
			stats.Active++
		}
		switch user.Role {
		case domain.RoleAdmin:
			stats.Admin++
		case domain.RoleMasyarakat:
			stats.Masyarakat++
		}
	}
	return stats, nil
}

func newTestIdentityService(repo repository.UserRepository) *IdentityService {
	return NewIdentityService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}, repo)
}

func TestRegister(t *testing.T) {
	svc := newTestIdentityService(newFakeUserRepo())

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Warga@Example.com",
		Password: "rahasia123",
	})
	require.NoError(t, err)

	assert.Equal(t, "warga@example.com", user.Email)
	assert.Equal(t, domain.RoleMasyarakat, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "rahasia123", user.PasswordHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestIdentityService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "warga@example.com", Password: "rahasia123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "WARGA@example.com", Password: "rahasia123"})
	assertDomainCode(t, err, "CONFLICT")
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestIdentityService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "", Password: "rahasia123"})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Register(ctx, RegisterInput{Email: "bukan-email", Password: "rahasia123"})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Register(ctx, RegisterInput{Email: "warga@example.com", Password: "12345"})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Register(ctx, RegisterInput{Email: "warga@example.com", Password: "rahasia123", Role: "superadmin"})
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestLogin(t *testing.T) {
	svc := newTestIdentityService(newFakeUserRepo())
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "warga@example.com", Password: "rahasia123"})
	require.NoError(t, err)

	user, token, exp, err := svc.Login(ctx, "warga@example.com", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
}

func TestLoginWrongCredentials(t *testing.T) {
	svc := newTestIdentityService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "warga@example.com", Password: "rahasia123"})
	require.NoError(t, err)

	// unknown email and wrong password yield the same generic message
	_, _, _, err = svc.Login(ctx, "lain@example.com", "rahasia123")
	assertDomainCode(t, err, "UNAUTHORIZED")

	_, _, _, err = svc.Login(ctx, "warga@example.com", "salah123")
	assertDomainCode(t, err, "UNAUTHORIZED")
}

func TestLoginInactiveAccount(t *testing.T) {
	svc := newTestIdentityService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "warga@example.com", Password: "rahasia123"})
	require.NoError(t, err)

	_, err = svc.Deactivate(ctx, user.ID)
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "warga@example.com", "rahasia123")
	assertDomainCode(t, err, "UNAUTHORIZED")
}

func TestUpdatePassword(t *testing.T) {
	svc := newTestIdentityService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "warga@example.com", Password: "rahasia123"})
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, user.ID, "salah", "barubanget")
	assertDomainCode(t, err, "UNAUTHORIZED")

	err = svc.UpdatePassword(ctx, user.ID, "rahasia123", "baru1")
	assertDomainCode(t, err, "VALIDATION_FAILED")

	err = svc.UpdatePassword(ctx, user.ID, "rahasia123", "barubanget")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "warga@example.com", "barubanget")
	assert.NoError(t, err)
}

func TestUpdateProfileEmailUniqueness(t *testing.T) {
	svc := newTestIdentityService(newFakeUserRepo())
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterInput{Email: "satu@example.com", Password: "rahasia123"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "dua@example.com", Password: "rahasia123"})
	require.NoError(t, err)

	taken := "dua@example.com"
	_, err = svc.UpdateProfile(ctx, first.ID, ProfileUpdateInput{Email: &taken})
	assertDomainCode(t, err, "CONFLICT")

	fresh := "tiga@example.com"
	updated, err := svc.UpdateProfile(ctx, first.ID, ProfileUpdateInput{Email: &fresh})
	require.NoError(t, err)
	assert.Equal(t, "tiga@example.com", updated.Email)
}

func TestUpdateUserRole(t *testing.T) {
	svc := newTestIdentityService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "warga@example.com", Password: "rahasia123"})
	require.NoError(t, err)

	admin := domain.RoleAdmin
	updated, err := svc.UpdateUser(ctx, user.ID, UserUpdateInput{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	bad := domain.Role("superadmin")
	_, err = svc.UpdateUser(ctx, user.ID, UserUpdateInput{Role: &bad})
	assertDomainCode(t, err, "VALIDATION_FAILED")
}
