package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"floorplan/internal/common/config"
	"floorplan/internal/common/middleware"
	"floorplan/internal/common/observability"
	"floorplan/internal/gateway/handlers"
	"floorplan/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Logger.ServiceName = "gateway"

	logger := observability.Init(cfg.Logger)
	defer observability.Sync()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "API Gateway",
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

	checkClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	handlers.Register(app, map[string]handlers.Checker{
		"layouts": handlers.UpstreamCheck(checkClient, cfg.LayoutsURL),
		"editor":  handlers.UpstreamCheck(checkClient, cfg.EditorURL),
	})

	// ============================================================
	// Docs
	// ============================================================

	app.Get("/docs/openapi.yaml", handlers.SwaggerSpec)
	app.Get("/docs", handlers.SwaggerUI)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Floor Plan API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	p := proxy.New(cfg.UpstreamTimeout, logger)

	// Layouts Service
	p.Mount(api, "/layouts", cfg.LayoutsURL+"/api/layouts")

	// Editor Service
	p.Mount(api, "/sessions", cfg.EditorURL+"/api/sessions")
	api.Post("/render", p.To(cfg.EditorURL+"/api/render"))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting api gateway",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("layouts_url", cfg.LayoutsURL),
		zap.String("editor_url", cfg.EditorURL))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
