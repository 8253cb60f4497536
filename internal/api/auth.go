package api

import (
	"contactbook/internal/auth"
	"contactbook/internal/middleware"
	"contactbook/internal/users"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	auth  *auth.Service
	users *users.Service
}

func NewAuthHandler(authService *auth.Service, usersService *users.Service) *AuthHandler {
	return &AuthHandler{
		auth:  authService,
		users: usersService,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
	}

	user, pair, err := h.auth.Register(c.Context(), req)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
	}

	user, pair, err := h.auth.Login(c.Context(), req)
	if err != nil {
		return HandleError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
	}

	pair, err := h.auth.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return HandleError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
	}

	if err := h.auth.Logout(c.Context(), req.RefreshToken); err != nil {
		return HandleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	record, err := h.users.FindByID(c.Context(), actor.ID, actor)
	if err != nil {
		return HandleError(c, err)
	}
	if record == nil {
		return NotFoundResponse(c)
	}
	return c.JSON(record)
}
