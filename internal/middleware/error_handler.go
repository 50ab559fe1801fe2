package middleware

import (
	"folio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	kind := "internal_error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
		if code == fiber.StatusNotFound {
			kind = "not_found"
		}
	}

	return response.Error(c, kind, message, code, nil)
}
