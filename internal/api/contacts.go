package api

import (
	"contactbook/internal/contacts"
	"contactbook/internal/middleware"
	"contactbook/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ContactHandler struct {
	contacts *contacts.Service
}

func NewContactHandler(contactsService *contacts.Service) *ContactHandler {
	return &ContactHandler{contacts: contactsService}
}

func (h *ContactHandler) Create(c *fiber.Ctx) error {
	payload, err := parseBody(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON object")
	}

	record, err := h.contacts.Create(c.Context(), payload, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *ContactHandler) List(c *fiber.Ctx) error {
	records, err := h.contacts.FindAll(c.Context(), repository.ContactFilter{}, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	return c.JSON(records)
}

func (h *ContactHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return NotFoundResponse(c)
	}

	record, err := h.contacts.FindByID(c.Context(), id, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	if record == nil {
		return NotFoundResponse(c)
	}
	return c.JSON(record)
}

func (h *ContactHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return NotFoundResponse(c)
	}
	payload, err := parseBody(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON object")
	}

	record, err := h.contacts.Update(c.Context(), id, payload, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	if record == nil {
		return NotFoundResponse(c)
	}
	return c.JSON(record)
}

func (h *ContactHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return NotFoundResponse(c)
	}

	record, err := h.contacts.Remove(c.Context(), id, middleware.Actor(c))
	if err != nil {
		return HandleError(c, err)
	}
	if record == nil {
		return NotFoundResponse(c)
	}
	return c.JSON(record)
}
