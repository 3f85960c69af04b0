package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"messenger/config"
	"messenger/database"
	"messenger/handlers"
	"messenger/logging"
	"messenger/middleware"
	"messenger/services"
)

func main() {
	// Load configuration
	cfg := config.GetConfig()

	zlog, err := logging.New(cfg.Production, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	defer database.Close(db)

	users := services.NewUserStore(db)
	tokens := services.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	sessions := services.NewSessionIssuer(users, services.NewMemoryCodeCache(), tokens, zlog)
	memberships := services.NewMembershipService(db, zlog)

	h := &handlers.Handler{
		Sessions:    sessions,
		Users:       users,
		Memberships: memberships,
		Messages:    services.NewMessagingService(db, memberships),
		Audit:       services.NewAuditor(db, zlog),
		Log:         zlog,
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Messenger",
		ErrorHandler: customErrorHandler(zlog),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	h.Register(app, middleware.AuthRequired(sessions))

	// No SMS gateway yet.
	zlog.Warn("login codes are returned in API responses")

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		zlog.Info("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			zlog.Error("Error shutting down", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	zlog.Info("Starting Messenger", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zlog.Fatal("Failed to start server", zap.Error(err))
	}
}

func customErrorHandler(zlog *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		if code >= fiber.StatusInternalServerError {
			zlog.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
