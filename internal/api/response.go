package api

import (
	"errors"
	"log/slog"

	"contactbook/internal/auth"
	"contactbook/internal/crud"
	"contactbook/internal/repository"

	"github.com/gofiber/fiber/v2"
)

func ErrorResponse(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

// HandleError translates service errors to HTTP responses. Anything not
// recognized is logged and reported as a generic 500 so internals never
// leak to clients.
func HandleError(c *fiber.Ctx, err error) error {
	var verr *crud.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "VALIDATION_FAILED",
				"message": verr.Error(),
				"status":  fiber.StatusBadRequest,
				"fields":  verr.Fields,
			},
		})
	case errors.Is(err, crud.ErrUnauthorized), errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", userMessage(err))
	case errors.Is(err, crud.ErrForbidden):
		return ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", "You do not have access to this resource")
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrorResponse(c, fiber.StatusConflict, "DUPLICATE_EMAIL", "Email address is already in use")
	case errors.Is(err, auth.ErrTooManyAttempts):
		return ErrorResponse(c, fiber.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many attempts, try again later")
	default:
		slog.Error("Request failed", "error", err, "path", c.Path())
		return ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, auth.ErrInvalidToken):
		return "Invalid or expired token"
	default:
		return "Authentication required"
	}
}

func NotFoundResponse(c *fiber.Ctx) error {
	return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Resource not found")
}
