package handlers

import (
	"strings"

	"task-center/middleware"
	"task-center/services"

	"github.com/gofiber/fiber/v2"
)

type LaunchGameRequest struct {
	Username string `json:"username"`
	GameCode string `json:"gameCode"`
}

type PlayGameRequest struct {
	Username     string `json:"username"`
	GameCode     string `json:"gameCode"`
	Score        int    `json:"score"`
	PlayDuration int    `json:"playDuration"`
}

type CreateGameRequest struct {
	GameCode    string `json:"gameCode"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func SetupGameRoutes(app *fiber.App, gameService *services.GameService, gameCache *services.GameCacheService) {
	games := app.Group("/api/games")

	games.Get("/", func(c *fiber.Ctx) error {
		list, err := gameService.GetActiveGames(c.Context())
		if err != nil {
			return fail(c, err)
		}
		return ok(c, "", list)
	})

	games.Get("/:code", func(c *fiber.Ctx) error {
		game, err := gameService.GetGameByCode(c.Context(), c.Params("code"))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, "", game)
	})

	games.Post("/launchGame", func(c *fiber.Ctx) error {
		var req LaunchGameRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.GameCode) == "" {
			return badRequest(c, "username and gameCode are required")
		}
		if err := gameService.HandleGameLaunch(c.Context(), req.Username, req.GameCode); err != nil {
			return fail(c, err)
		}
		return ok(c, "game launch processed", nil)
	})

	games.Post("/play", func(c *fiber.Ctx) error {
		var req PlayGameRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.GameCode) == "" {
			return badRequest(c, "username and gameCode are required")
		}
		if req.Score < 0 {
			return badRequest(c, "score must not be negative")
		}
		if req.PlayDuration <= 0 {
			return badRequest(c, "playDuration must be positive")
		}
		if err := gameService.HandleGamePlay(c.Context(), req.Username, req.GameCode, req.Score, req.PlayDuration); err != nil {
			return fail(c, err)
		}
		return ok(c, "game play processed", nil)
	})

	// Admin surface: game registration and cache maintenance.
	admin := app.Group("/api/admin/games", middleware.AdminAuthMiddleware())

	admin.Post("/", func(c *fiber.Ctx) error {
		var req CreateGameRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.Name) == "" {
			return badRequest(c, "name is required")
		}
		game, err := gameService.CreateGame(c.Context(), req.GameCode, req.Name, req.Description)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, "game created", game)
	})

	admin.Post("/cache/rebuild", func(c *fiber.Ctx) error {
		count, err := gameCache.RebuildCache(c.Context())
		if err != nil {
			return fail(c, err)
		}
		return ok(c, "game cache rebuilt", fiber.Map{"count": count})
	})
}
