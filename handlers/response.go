package handlers

import (
	"errors"

	"task-center/repository"
	"task-center/services"

	"github.com/gofiber/fiber/v2"
)

// ApiResponse is the envelope every endpoint returns.
type ApiResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	ErrorCode string      `json:"errorCode,omitempty"`
}

func ok(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(ApiResponse{Success: true, Message: message, Data: data})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ApiResponse{
		Success: false, Message: message, ErrorCode: "INVALID_REQUEST",
	})
}

// fail maps service errors onto the response envelope.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrGameNotFound),
		errors.Is(err, repository.ErrMissionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ApiResponse{
			Success: false, Message: err.Error(), ErrorCode: "NOT_FOUND",
		})
	case errors.Is(err, services.ErrGameInactive):
		return c.Status(fiber.StatusConflict).JSON(ApiResponse{
			Success: false, Message: err.Error(), ErrorCode: "GAME_INACTIVE",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ApiResponse{
			Success: false, Message: "internal error", ErrorCode: "INTERNAL_ERROR",
		})
	}
}
