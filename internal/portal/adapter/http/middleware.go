package http

import (
	"errors"
	"time"

	"afi-portal/internal/shared/contextkeys"
	sharedErrors "afi-portal/internal/shared/errors"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"
	"afi-portal/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// CORS middleware for the configured origins
func CORS(allowOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Requested-With,X-Request-ID",
		AllowCredentials: allowOrigins != "*",
		MaxAge:           86400, // 24 hours
	})
}

// ErrorHandler turns errors escaping a handler into a JSON body. Fiber errors
// keep their status, application errors use their HTTP code.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	log = log.WithComponent("http")
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		appErr, ok := sharedErrors.AsAppError(err)
		if !ok {
			log.WithContext(c.UserContext()).Error("Unhandled error", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		if appErr.HTTPCode >= fiber.StatusInternalServerError {
			log.WithContext(c.UserContext()).Error("Request failed", zap.String("error", appErr.Verbose()))
		}
		return respondError(c, err)
	}
}

// SecurityHeaders adds security headers
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RequestID assigns a request id, echoed in the X-Request-ID header.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		ContextKey: string(contextkeys.RequestIDKey),
	})
}

// RequestContext copies the request id set by RequestID into the user context.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid, ok := c.Locals(string(contextkeys.RequestIDKey)).(string); ok && rid != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), rid))
		}
		return c.Next()
	}
}

// RequestLogger logs one line per request and records its metrics.
func RequestLogger(log logger.Logger, m *metrics.Metrics) fiber.Handler {
	log = log.WithComponent("http")
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler set the final status before logging it.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		elapsed := time.Since(started)
		if m != nil {
			m.ObserveHTTP(c.Method(), c.Route().Path, status, elapsed)
		}

		fields := []interface{}{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		}
		entry := log.WithContext(c.UserContext())
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error(append([]interface{}{"Request failed"}, fields...)...)
		case status >= fiber.StatusBadRequest:
			entry.Warn(append([]interface{}{"Request rejected"}, fields...)...)
		default:
			entry.Info(append([]interface{}{"Request served"}, fields...)...)
		}
		return nil
	}
}

// LoginRateLimiter limits credential submissions per IP and minute. A max of
// zero disables it. Forwarded addresses count only through the app's
// ProxyHeader from trusted proxies.
func LoginRateLimiter(max int) fiber.Handler {
	if max <= 0 {
		return nil
	}
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many attempts. Please try again later.",
			})
		},
	})
}
