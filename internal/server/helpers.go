package server

import (
	"strings"
	"time"

	"peertutor/internal/models"

	"github.com/gofiber/fiber/v2"
)

// currentUserID returns the authenticated user ID set by AuthRequired.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// respondServiceError maps a service error onto its HTTP status.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func invalidBody(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest,
		models.NewValidationError("Invalid request body"))
}

// pathParam returns a trimmed route parameter, writing a 400 when it is
// empty. ok is false when the response has been written.
func pathParam(c *fiber.Ctx, name string) (string, bool) {
	v := strings.TrimSpace(c.Params(name))
	if v == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing "+name))
		return "", false
	}
	return v, true
}

// parseDate reads a YYYY-MM-DD query parameter, defaulting to today in UTC.
func parseDate(c *fiber.Ctx, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, models.NewValidationError("date must be YYYY-MM-DD")
	}
	return d, nil
}
