package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// CORS разрешает все источники (dev). ETag отдаётся клиенту: по нему
// редактор сверяет ревизию сохранённой сцены.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders: []string{"ETag"},
	})
}
