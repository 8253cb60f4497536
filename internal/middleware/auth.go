package middleware

import (
	"strings"

	"contactbook/internal/auth"
	"contactbook/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const actorKey = "actor"

// Authenticated rejects requests without a valid Bearer access token and
// stores the resolved actor in the request locals.
func Authenticated(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := actorFromHeader(c, tokens)
		if actor == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "UNAUTHORIZED",
					"message": "Missing or invalid access token",
					"status":  fiber.StatusUnauthorized,
				},
			})
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// MaybeAuthenticated resolves the actor when a valid token is present but
// lets anonymous requests through. Registration uses this: an admin may
// create users on behalf of others, while visitors sign themselves up.
func MaybeAuthenticated(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if actor := actorFromHeader(c, tokens); actor != nil {
			c.Locals(actorKey, actor)
		}
		return c.Next()
	}
}

// Actor returns the authenticated actor for the request, or nil for
// anonymous requests.
func Actor(c *fiber.Ctx) *model.Actor {
	actor, _ := c.Locals(actorKey).(*model.Actor)
	return actor
}

func actorFromHeader(c *fiber.Ctx, tokens *auth.TokenManager) *model.Actor {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil
	}
	claims, err := tokens.ParseAccess(token)
	if err != nil {
		return nil
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil
	}
	return &model.Actor{ID: userID, Role: claims.Role}
}
