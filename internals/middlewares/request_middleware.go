package middlewares

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/utils"

	"schoolpay_backend/internals/helpers/logx"
)

// RequestContext: Request-ID + HTTP timeout guard (selaras dengan statement_timeout di DB).
// Handler harus memakai c.UserContext() supaya deadline ikut ke DB & gateway.
func RequestContext(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = utils.UUID()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals("reqid", id)

		start := time.Now()
		ctx, cancel := context.WithTimeout(c.Context(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		err := c.Next()
		logx.S().Debugw("[REQ]", "id", id, "method", c.Method(), "path", c.OriginalURL(),
			"status", c.Response().StatusCode(), "dur", time.Since(start))
		return err
	}
}

// ExtendTimeout mengganti deadline request (mis. webhook 10s).
func ExtendTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
