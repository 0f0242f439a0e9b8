package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aedentek-pro/lms004/internal/config"
	"github.com/aedentek-pro/lms004/internal/database"
	"github.com/aedentek-pro/lms004/internal/logger"
	"github.com/aedentek-pro/lms004/internal/routes"
	"github.com/aedentek-pro/lms004/internal/scheduler"
	"github.com/aedentek-pro/lms004/internal/services"
	"github.com/aedentek-pro/lms004/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl := logger.New(cfg.AppEnv)
	defer zl.Sync()

	if cfg.DBUrl == "" {
		zl.Fatal("DB_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DBUrl)
	if err != nil {
		zl.Sugar().Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	st := store.NewPostgres(pool)

	notifier := services.NewNotifier(st)
	reminders := scheduler.New(st, notifier, zl)
	reminders.Start(ctx)
	defer reminders.Stop()

	app := fiber.New()

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, st)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		zl.Info("Shutting down server")
		cancel()
		if err := app.Shutdown(); err != nil {
			zl.Sugar().Errorf("Server shutdown failed: %v", err)
		}
	}()

	zl.Sugar().Infof("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Sugar().Fatalf("Server failed to start: %v", err)
	}
}
