package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"floorplan/internal/common/config"
	"floorplan/internal/common/middleware"
	"floorplan/internal/common/observability"
	"floorplan/internal/editor"
	"floorplan/internal/editor/handlers"
	"floorplan/internal/editor/service"
	health "floorplan/internal/gateway/handlers"
	"floorplan/internal/layouts/client"
	"floorplan/internal/render"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"
)

// ============================================================
// Editor Service
// ============================================================

func main() {
	cfg, err := config.Load(config.WithDefault("port", "3001"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Logger.ServiceName = "editor"

	logger := observability.Init(cfg.Logger)
	defer observability.Sync()

	ec := cfg.Editor
	sessions := service.NewSessionManager(ec.SessionTTL,
		editor.WithGridUnit(ec.GridUnit),
		editor.WithCanvas(ec.CanvasWidth, ec.CanvasHeight),
	)
	layoutsClient := client.New(cfg.LayoutsURL, cfg.UpstreamTimeout)
	renderer := render.NewRenderer(ec.CanvasWidth, ec.CanvasHeight, ec.GridUnit)
	editorHandler := handlers.NewEditorHandler(sessions, layoutsClient, renderer, logger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Editor Service",
		ErrorHandler: middleware.ErrorHandler(logger),
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

	health.Register(app, map[string]health.Checker{
		"layouts": health.UpstreamCheck(&http.Client{Timeout: cfg.UpstreamTimeout}, cfg.LayoutsURL),
	})

	// ============================================================
	// Editor Routes
	// ============================================================

	editorHandler.Register(app.Group("/api"))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting editor service",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("layouts_url", cfg.LayoutsURL),
		zap.Int("grid_unit", ec.GridUnit))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
