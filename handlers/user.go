package handlers

import (
	"strings"

	"task-center/services"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Username string `json:"username"`
}

func SetupUserRoutes(app *fiber.App, userService *services.UserService, missionService *services.MissionService) {
	users := app.Group("/api/users")

	users.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.Username) == "" {
			return badRequest(c, "username is required")
		}

		user, err := userService.HandleLogin(c.Context(), req.Username)
		if err != nil {
			return fail(c, err)
		}
		if err := missionService.InitializeMissions(c.Context(), user.ID); err != nil {
			return fail(c, err)
		}
		return ok(c, "login processed", user)
	})

	users.Get("/:username", func(c *fiber.Ctx) error {
		user, err := userService.GetUserByUsername(c.Context(), c.Params("username"))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, "", user)
	})
}
