package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"design-room/internal/common/config"
	"design-room/internal/common/middleware"
	"design-room/internal/designroom/bitmap"
	"design-room/internal/designroom/editor"
	"design-room/internal/designroom/handlers"
	"design-room/internal/designroom/mapper"
	"design-room/internal/designroom/models"
	"design-room/internal/designroom/repository"
	"design-room/internal/designroom/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Design Room Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" && cfg.Port == "3000" {
		cfg.Port = "3003"
	}

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	style := cfg.Canvas.Style
	loader := bitmap.NewLoader(&http.Client{}, cfg.Canvas.BitmapTimeout, cfg.Canvas.BitmapConcurrency)
	sessions := service.NewSessionManager(editorOptions(cfg.Canvas, style), loader)
	scenes := service.NewScenes(repo, sessions)
	fileStorage := service.NewFileStorage(cfg.ExportDir)

	pngRenderer, err := mapper.NewPNGRenderer()
	if err != nil {
		log.Fatalf("init png renderer: %v", err)
	}
	renderOpts := mapper.DefaultOptions()
	renderOpts.Width = cfg.Canvas.RenderWidth
	renderOpts.Height = cfg.Canvas.RenderHeight

	sceneHandler := handlers.NewSceneHandler(scenes, repo, fileStorage, pngRenderer, renderOpts, style)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Design Room",
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

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := pingDB(c.Context(), db); err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ready", "sessions": len(sessions.IDs())})
	})

	// ============================================================
	// Scene Routes
	// ============================================================

	sceneHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Printf("Shutting down, saving %d open scenes", len(sessions.IDs()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := scenes.CloseAll(ctx); err != nil {
			log.Printf("[SCENE] save on shutdown: %v", err)
		}
		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Design Room on %s (env: %s, db: %s)", addr, cfg.Environment, cfg.DBPath)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func editorOptions(c config.Canvas, style models.Style) editor.Options {
	return editor.Options{
		MinZoom:      c.MinZoom,
		MaxZoom:      c.MaxZoom,
		ZoomStep:     c.ZoomStep,
		MinShapeSize: c.MinShapeSize,
		Layout:       c.Options,
		Style:        style,
	}
}

func pingDB(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
