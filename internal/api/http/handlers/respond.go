package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pengaduan-service/internal/api/dto"
)

// respond writes the standard success envelope.
func respond(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// respondPaged writes the success envelope with pagination metadata.
func respondPaged(c *fiber.Ctx, message string, data any, pagination *dto.PaginationResponse) error {
	return c.JSON(fiber.Map{
		"success":    true,
		"message":    message,
		"data":       data,
		"pagination": pagination,
	})
}
