package middlewares

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SetupMiddlewares wires the base middleware chain in a fixed order:
// recovery first, then CORS, then rate limiting, then request logging.
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(GlobalRateLimiter())

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Printf("[REQ] %s %s status=%d dur=%s", c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
		return err
	})
}
