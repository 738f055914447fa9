package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"floorplan/internal/common/config"
	"floorplan/internal/common/middleware"
	"floorplan/internal/common/observability"
	health "floorplan/internal/gateway/handlers"
	"floorplan/internal/layouts"
	"floorplan/internal/layouts/handlers"
	"floorplan/internal/layouts/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"
)

// ============================================================
// Layouts Service
// ============================================================

func main() {
	cfg, err := config.Load(config.WithDefault("port", "3002"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Logger.ServiceName = "layouts"

	logger := observability.Init(cfg.Logger)
	defer observability.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo, closeRepo, err := openRepository(ctx, cfg.Store, logger)
	cancel()
	if err != nil {
		logger.Fatal("open repository", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeRepo()

	layoutHandler := handlers.NewLayoutHandler(repo, logger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Layouts Service",
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
		"store": repo.Ping,
	})

	// ============================================================
	// Layout Routes
	// ============================================================

	layoutHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting layouts service",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("driver", cfg.Store.Driver))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// openRepository выбирает хранилище по STORE_DRIVER и применяет миграции.
func openRepository(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (layouts.Repository, func(), error) {
	migrationLog := zap.NewStdLog(logger.Named("migrate"))

	switch cfg.Driver {
	case "", "sqlite":
		db, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewSQLite(db)
		if err := repo.Init(ctx, migrationLog); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init sqlite: %w", err)
		}
		return repo, func() { db.Close() }, nil

	case "postgres":
		pool, err := repository.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgres(pool)
		if err := repo.Init(ctx, migrationLog); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("init postgres: %w", err)
		}
		return repo, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
