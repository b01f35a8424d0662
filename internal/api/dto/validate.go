package dto

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

// shared validator instance, reused across all handlers
var validate = validator.New()

// Validate checks a request struct against its validation tags and returns a
// field-level ValidationError on failure.
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
		fe := ve[0]
		return apperrors.NewValidationError(
			fmt.Sprintf("%s: %s", fe.Field(), formatValidationError(fe)),
			map[string]any{"field": fe.Field()},
		)
	}
	return apperrors.NewValidationError("invalid payload", nil)
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "wajib diisi"
	case "email":
		return "harus berupa alamat email yang valid"
	case "min":
		return fmt.Sprintf("minimal %s karakter", fe.Param())
	case "max":
		return fmt.Sprintf("maksimal %s karakter", fe.Param())
	case "oneof":
		return fmt.Sprintf("harus salah satu dari: %s", fe.Param())
	default:
		return fmt.Sprintf("tidak valid (%s)", fe.Tag())
	}
}
