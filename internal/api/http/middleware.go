package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimit admits rps requests per second with the given burst and turns
// the rest into 429s. One limiter covers the whole route; the chat path is
// the only caller and its upstream quota is global, not per client.
func RateLimit(rps float64, burst int) fiber.Handler {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many chat requests, slow down")
		}
		return c.Next()
	}
}
