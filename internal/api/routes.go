package api

import (
	"contactbook/internal/auth"
	"contactbook/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Contacts *ContactHandler
	Health   *HealthHandler
}

func RegisterRoutes(app *fiber.App, h Handlers, tokens *auth.TokenManager) {
	app.Get("/health", h.Health.Healthy)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.Refresh)
	authGroup.Post("/logout", h.Auth.Logout)
	authGroup.Get("/me", middleware.Authenticated(tokens), h.Auth.Me)

	// User creation accepts anonymous self sign-up; everything else
	// requires a token.
	usersGroup := app.Group("/users")
	usersGroup.Post("/", middleware.MaybeAuthenticated(tokens), h.Users.Create)
	usersGroup.Get("/", middleware.Authenticated(tokens), h.Users.List)
	usersGroup.Get("/:id", middleware.Authenticated(tokens), h.Users.Get)
	usersGroup.Patch("/:id", middleware.Authenticated(tokens), h.Users.Update)
	usersGroup.Delete("/:id", middleware.Authenticated(tokens), h.Users.Delete)

	contactsGroup := app.Group("/contacts", middleware.Authenticated(tokens))
	contactsGroup.Post("/", h.Contacts.Create)
	contactsGroup.Get("/", h.Contacts.List)
	contactsGroup.Get("/:id", h.Contacts.Get)
	contactsGroup.Patch("/:id", h.Contacts.Update)
	contactsGroup.Delete("/:id", h.Contacts.Delete)
}
