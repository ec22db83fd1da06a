// Package middleware provides request-scoped fiber middleware: context
// propagation, structured request logging, tracing, metrics and rate limiting.
package middleware

import (
	"context"
	"time"

	"artfeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Context keys shared with the observability package so the logger can read them.
const (
	RequestIDKey = observability.RequestIDKey
	UserIDKey    = observability.UserIDKey
	TraceIDKey   = observability.TraceIDKey
)

// ContextMiddleware injects request ID, user ID and trace ID from Fiber locals into the request context.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = context.WithValue(ctx, RequestIDKey, rid)
		}
		if uid, ok := c.Locals("userID").(uint); ok {
			ctx = context.WithValue(ctx, UserIDKey, uid)
		}
		if tid, ok := c.Locals("traceID").(string); ok && tid != "" {
			ctx = context.WithValue(ctx, TraceIDKey, tid)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger returns a Fiber middleware logging one line per request.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Response().StatusCode()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}

		logger := observability.FromContext(c.UserContext())
		if err != nil {
			logger.Error("request failed", append(fields, zap.Error(err))...)
		} else {
			logger.Info("request processed", fields...)
		}

		return err
	}
}
