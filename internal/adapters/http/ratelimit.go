package http

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoportfolio/internal/core/ports"
	"github.com/samirrijal/geoportfolio/internal/pkg/logging"
	"github.com/samirrijal/geoportfolio/internal/pkg/metrics"
)

// RateLimitMiddleware enforces a fixed-window quota per client IP for one
// scope. Requests over the quota get 429 and never reach the handler. When the
// counter store fails the request is let through.
func RateLimitMiddleware(scope string, counter ports.RateCounter, cfg RateLimit) fiber.Handler {
	now := time.Now
	return func(c *fiber.Ctx) error {
		if !cfg.Enabled || counter == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
			return c.Next()
		}

		start := now().Truncate(cfg.Window)
		reset := start.Add(cfg.Window)
		key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, c.IP(), start.Unix())

		count, err := counter.Increment(c.UserContext(), key, cfg.Window)
		if err != nil {
			logging.FromContext(c.UserContext()).Warn("rate counter unavailable", "scope", scope, "error", err)
			return c.Next()
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if count > int64(cfg.Limit) {
			retry := int64(time.Until(reset).Round(time.Second) / time.Second)
			if retry < 1 {
				retry = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retry, 10))
			metrics.RateLimited.WithLabelValues(scope).Inc()
			return errRateLimited(c)
		}
		return c.Next()
	}
}
