package api

import (
	"contactbook/internal/crud"
	"contactbook/internal/middleware"
	"contactbook/internal/repository"
	"contactbook/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	users *users.Service
}

func NewUserHandler(usersService *users.Service) *UserHandler {
	return &UserHandler{users: usersService}
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	payload, err := parseBody(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON object")
	}

	record, err := h.users.Create(c.Context(), payload, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	records, err := h.users.FindAll(c.Context(), repository.UserFilter{}, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	return c.JSON(records)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return NotFoundResponse(c)
	}

	record, err := h.users.FindByID(c.Context(), id, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	if record == nil {
		return NotFoundResponse(c)
	}
	return c.JSON(record)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return NotFoundResponse(c)
	}
	payload, err := parseBody(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON object")
	}

	record, err := h.users.Update(c.Context(), id, payload, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	if record == nil {
		return NotFoundResponse(c)
	}
	return c.JSON(record)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return NotFoundResponse(c)
	}

	record, err := h.users.Remove(c.Context(), id, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	if record == nil {
		return NotFoundResponse(c)
	}
	return c.JSON(record)
}

func parseBody(c *fiber.Ctx) (crud.Payload, error) {
	var payload crud.Payload
	if err := c.BodyParser(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
