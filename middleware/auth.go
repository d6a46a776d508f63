package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AdminAuthMiddleware validates the bearer service token on admin routes
// (game registration, cache rebuild). The token comes from
// TASK_CENTER_ADMIN_TOKEN.
func AdminAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("TASK_CENTER_ADMIN_TOKEN")
	if expectedToken == "" {
		logrus.Fatal("TASK_CENTER_ADMIN_TOKEN is not set, admin routes cannot authenticate")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logrus.WithField("path", c.Path()).Warn("admin request without authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "admin token missing",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != expectedToken {
			logrus.WithField("path", c.Path()).Warn("admin request with invalid token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid admin token",
			})
		}

		return c.Next()
	}
}
