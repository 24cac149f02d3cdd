package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe готов, когда все апстримы отвечают на /health/live.
// upstreams: имя сервиса -> базовый URL.
func ReadinessProbe(upstreams map[string]string) fiber.Handler {
	client := &http.Client{Timeout: 2 * time.Second}

	return func(c fiber.Ctx) error {
		checks := fiber.Map{}
		ready := true
		for name, baseURL := range upstreams {
			if err := ping(c.Context(), client, strings.TrimRight(baseURL, "/")+"/health/live"); err != nil {
				checks[name] = err.Error()
				ready = false
				continue
			}
			checks[name] = "ok"
		}

		if !ready {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"status":    "not ready",
				"upstreams": checks,
			})
		}
		return c.JSON(fiber.Map{
			"status":    "ready",
			"upstreams": checks,
		})
	}
}

func ping(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
