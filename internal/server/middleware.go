package server

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/refcue/internal/common"
)

const requestIDHeader = "X-Request-ID"

// RequestContext tags each request with an id and a request-scoped logger.
func RequestContext(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)

		ctx := common.WithRequestID(c.UserContext(), id)
		ctx = common.WithLogger(ctx, logger.With("request_id", id))
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// AccessLog logs one line per request after it completes.
func AccessLog(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = statusFor(err)
		}
		l := common.LoggerFromContext(c.UserContext(), logger)
		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if status >= fiber.StatusInternalServerError {
			l.Warn("http request", attrs...)
		} else {
			l.Info("http request", attrs...)
		}
		return err
	}
}
