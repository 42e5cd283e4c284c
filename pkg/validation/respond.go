package validation

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// Respond writes a Laravel-style 400.
func Respond(c *fiber.Ctx, errs map[string][]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ValidationErrorResponse{
		Message: "Validation failed",
		Errors:  errs,
	})
}

// Check validates s and writes the 400 itself when it fails. ok is false when
// the handler should return err immediately.
func Check(c *fiber.Ctx, s any) (ok bool, err error) {
	errs, err := Validate(s)
	if err != nil {
		return false, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if len(errs) > 0 {
		return false, Respond(c, errs)
	}
	return true, nil
}
