package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoportfolio/internal/pkg/logging"
)

// quietPaths are probed by orchestrators and scrapers often enough that
// their successful requests are logged at debug level only.
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// RequestLogMiddleware stores a logger tagged with the request ID in the user
// context, where use cases pick it up with logging.FromContext, and writes
// one access line per request once the handler chain returns.
func RequestLogMiddleware(base *slog.Logger) fiber.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		log := base
		if rid := requestID(c); rid != "" {
			log = base.With("request_id", rid)
		}
		c.SetUserContext(logging.WithLogger(c.UserContext(), log))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet; report what it will send.
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quietPaths[c.Path()]:
			level = slog.LevelDebug
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
			slog.String("ip", c.IP()),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		log.LogAttrs(c.UserContext(), level, "http request", attrs...)

		return err
	}
}
