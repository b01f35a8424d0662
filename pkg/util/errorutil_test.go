package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	original := NewForbidden("Akses ditolak")
	converted := ToDomainError(fmt.Errorf("wrapped: %w", original))
	assert.Equal(t, "FORBIDDEN", converted.Code)
	assert.Equal(t, http.StatusForbidden, converted.HTTPStatus)
}

func TestToDomainErrorMapsNoRowsToNotFound(t *testing.T) {
	converted := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", converted.Code)
	assert.Equal(t, http.StatusNotFound, converted.HTTPStatus)
}

func TestToDomainErrorMapsUniqueViolationToConflict(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}
	converted := ToDomainError(fmt.Errorf("insert user: %w", pgErr))
	assert.Equal(t, "CONFLICT", converted.Code)
	assert.Equal(t, http.StatusConflict, converted.HTTPStatus)
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	converted := ToDomainError(errors.New("boom"))
	require.NotNil(t, converted)
	assert.Equal(t, "INTERNAL_ERROR", converted.Code)
	assert.Equal(t, http.StatusInternalServerError, converted.HTTPStatus)
	assert.Equal(t, "Terjadi kesalahan internal server", converted.Message)
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}
