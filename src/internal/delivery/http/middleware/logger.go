package middleware

import (
	"fmt"
	"time"

	"wallet-service/src/pkg/log"

	"github.com/gofiber/fiber/v2"
)

// NewLogger logs one line per request with method, path, status and latency.
func NewLogger() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		latency := time.Since(start)

		logger := log.GetLogger()
		message := fmt.Sprintf("%s %s -> %d (%s)", ctx.Method(), ctx.Path(), ctx.Response().StatusCode(), latency)
		if latency > time.Second {
			logger.Slow("http", message, "request", ctx.IP())
		} else {
			logger.Info("http", message, "request", ctx.IP())
		}
		return err
	}
}
