package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contactbook/internal/api"
	"contactbook/internal/auth"
	"contactbook/internal/config"
	"contactbook/internal/contacts"
	"contactbook/internal/database"
	"contactbook/internal/logger"
	"contactbook/internal/middleware"
	"contactbook/internal/repository"
	"contactbook/internal/telemetry"
	"contactbook/internal/users"
	"contactbook/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.NewConfig()

	tel, err := telemetry.NewOpenTelemetry(cfg.Telemetry)
	if err != nil {
		slog.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	logger.New(cfg)

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	contactRepo := repository.NewPostgresContactRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)
	shareRepo := repository.NewPostgresShareRepository(db)

	v := validator.New()
	usersService := users.NewService(userRepo, v)
	contactsService := contacts.NewService(contactRepo, shareRepo, userRepo, v, tel)

	tokens := auth.NewTokenManager(cfg.Auth)
	authService := auth.NewService(
		usersService,
		tokens,
		auth.NewRedisRevocationList(redisClient),
		auth.NewRedisRateLimiter(redisClient),
		v,
		tel,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	app.Use(recover.New())
	app.Use(middleware.Logger())

	// Per-IP limiter in front of the credential endpoints; the auth service
	// adds per-email counters on top.
	credentialLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "TOO_MANY_ATTEMPTS",
					"message": "Too many attempts, try again later",
					"status":  fiber.StatusTooManyRequests,
				},
			})
		},
	})
	app.Use("/auth/register", credentialLimiter)
	app.Use("/auth/login", credentialLimiter)

	api.RegisterRoutes(app, api.Handlers{
		Auth:     api.NewAuthHandler(authService, usersService),
		Users:    api.NewUserHandler(usersService),
		Contacts: api.NewContactHandler(contactsService),
		Health:   api.NewHealthHandler(db, redisClient),
	}, tokens)

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		slog.Info("Starting server", "addr", addr)
		if err := app.Listen(addr); err != nil {
			slog.Error("Server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Failed to shut down server", "error", err)
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down telemetry", "error", err)
	}
}
