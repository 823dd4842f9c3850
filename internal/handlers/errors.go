package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"inventory/internal/contract"
	"inventory/internal/middleware"
	"inventory/internal/services"
)

// respondError maps a service error to a status code and writes the usual error body.
func respondError(c *fiber.Ctx, err error, message string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"field":   verr.Field,
			"error":   verr.Reason,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, contract.ErrUnsupportedAddress):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	default:
		log.Printf("%s: %v", message, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// audit logs a change together with the clerk who made it.
func audit(c *fiber.Ctx, format string, args ...any) {
	who := "unknown clerk"
	if clerk, ok := middleware.ClerkFrom(c); ok {
		who = fmt.Sprintf("clerk %s (id %d)", clerk.Username, clerk.ID)
	}
	log.Printf("%s: %s", who, fmt.Sprintf(format, args...))
}
