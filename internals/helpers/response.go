package helper

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

/* ===============================
   Error envelope
   {error, detail, fields?}
=================================*/

// Machine error codes used across the API surface.
const (
	ErrCodeInput      = "invalid_input"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeAuth       = "unauthorized"
	ErrCodeDependency = "dependency_failed"
	ErrCodeInternal   = "internal_error"
)

func JsonOK(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(data)
}

func JsonCreated(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

func JsonError(c *fiber.Ctx, status int, code, detail string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":  code,
		"detail": detail,
	})
}

// JsonErrorWithFields carries per-field messages for validation failures.
func JsonErrorWithFields(c *fiber.Ctx, status int, code, detail string, fields map[string][]string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":  code,
		"detail": detail,
		"fields": fields,
	})
}

// JsonValidationError flattens validator.v10 errors into the envelope's
// fields map.
func JsonValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return JsonError(c, fiber.StatusBadRequest, ErrCodeInput, "Invalid input")
	}
	fields := make(map[string][]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = append(fields[fe.Field()], fe.Tag())
	}
	return JsonErrorWithFields(c, fiber.StatusBadRequest, ErrCodeInput, "Validation failed", fields)
}
