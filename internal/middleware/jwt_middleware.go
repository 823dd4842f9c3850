package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"

	"inventory/internal/services"
)

const clerkKey = "clerk"

// Clerk identifies the staff member behind an authenticated request.
type Clerk struct {
	ID       uint
	Username string
}

// AuthRequired rejects requests without a valid bearer token and stores the clerk
// named by the token for ClerkFrom.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": err.Error(),
			})
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			log.Printf("Rejected token from %s: %v", c.IP(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		id, err := cast.ToUintE(claims["clerk_id"])
		username, _ := claims["username"].(string)
		if err != nil || username == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token does not name a clerk",
			})
		}

		c.Locals(clerkKey, Clerk{ID: id, Username: username})
		return c.Next()
	}
}

// ClerkFrom returns the clerk AuthRequired stored on c.
func ClerkFrom(c *fiber.Ctx) (Clerk, bool) {
	clerk, ok := c.Locals(clerkKey).(Clerk)
	return clerk, ok
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("Authorization header is required")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errors.New("Authorization header format must be 'Bearer <token>'")
	}
	return strings.TrimSpace(token), nil
}
