package middleware

import (
	"errors"

	"floorplan/internal/common/observability"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.uber.org/zap"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger возвращает middleware для логирования запросов
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} | ${bytesReceived}B in ${bytesSent}B out\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}

// ErrorHandler отвечает JSON-ошибкой и пишет 5xx в лог сервиса.
// Без логгера используется глобальный observability.L().
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			l := log
			if l == nil {
				l = observability.L()
			}
			l.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
