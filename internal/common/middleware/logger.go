package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// SceneLocal: ключ c.Locals, под которым обработчики кладут id сцены.
const SceneLocal = "scene"

// Logger пишет строку на запрос; для запросов к сцене добавляется её id.
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} scene=${locals:" + SceneLocal + "} | Content-Type: ${reqHeader:Content-Type}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
