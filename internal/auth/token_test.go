package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pengaduan-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	user := &domain.User{ID: 42, Email: "warga@example.com", Role: domain.RoleMasyarakat}
	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "warga@example.com", claims.Email)
	assert.Equal(t, domain.RoleMasyarakat, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 60)
	other := NewTokenManager("secret-b", 60)

	token, _, err := tm.GenerateToken(&domain.User{ID: 1, Email: "a@b.co", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	tm := &TokenManager{secret: []byte("test-secret"), ttl: -time.Minute}

	token, _, err := tm.GenerateToken(&domain.User{ID: 7, Email: "x@y.co", Role: domain.RoleMasyarakat})
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	_, err := tm.ParseToken("not-a-token")
	assert.Error(t, err)
}
