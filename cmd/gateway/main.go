package main

import (
	"fmt"
	"log"
	"time"

	"design-room/internal/common/config"
	"design-room/internal/common/middleware"
	"design-room/internal/gateway/handlers"
	"design-room/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

const apiPrefix = "/api/v1"

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "API Gateway",
		BodyLimit:    16 << 20,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", handlers.ReadinessProbe(map[string]string{
		"design-room": cfg.DesignRoomURL,
	}))
	app.Get("/health/startup", handlers.StartupProbe)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group(apiPrefix)

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "API Gateway v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	// Design Room: сцены, сессии, рендер, импорт/экспорт, каталог ассетов
	designRoom := proxy.ProxyPrefix(cfg.DesignRoomURL, apiPrefix)
	api.All("/scenes", designRoom)
	api.All("/scenes/*", designRoom)
	api.All("/assets", designRoom)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying %s/scenes and %s/assets to %s", apiPrefix, apiPrefix, cfg.DesignRoomURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
