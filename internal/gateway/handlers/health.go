package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Checker проверяет одну зависимость; nil - готова.
type Checker func(ctx context.Context) error

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe проверяет зависимости; любая ошибка даёт 503.
func ReadinessProbe(checks map[string]Checker) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		failed := fiber.Map{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": failed,
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}

// Register подключает /health/live, /health/ready и /health/startup.
func Register(r fiber.Router, checks map[string]Checker) {
	r.Get("/health/live", LivenessProbe)
	r.Get("/health/ready", ReadinessProbe(checks))
	r.Get("/health/startup", StartupProbe)
}

// UpstreamCheck считает сервис готовым, если его /health/live отвечает 2xx.
func UpstreamCheck(client *http.Client, baseURL string) Checker {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health/live", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return &StatusError{Code: resp.StatusCode}
		}
		return nil
	}
}

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "upstream responded " + http.StatusText(e.Code)
}
