package handlers

import (
	"strconv"

	"task-center/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMissionRoutes(app *fiber.App, missionService *services.MissionService) {
	missions := app.Group("/api/missions")

	missions.Get("/", func(c *fiber.Ctx) error {
		userID, err := strconv.ParseUint(c.Query("userId"), 10, 64)
		if err != nil || userID == 0 {
			return badRequest(c, "userId query parameter is required")
		}
		list, err := missionService.GetMissionsForUser(c.Context(), uint(userID))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, "", list)
	})
}
