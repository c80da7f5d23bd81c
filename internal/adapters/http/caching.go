package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type cacheRule struct {
	prefix string
	exact  bool
	value  string
}

// cacheRules are matched in order; the first hit wins.
var cacheRules = []cacheRule{
	{prefix: "/health", exact: true, value: "no-store"},
	{prefix: "/ready", exact: true, value: "no-store"},
	{prefix: "/metrics", exact: true, value: "no-store"},
	{prefix: "/docs", value: "public, max-age=3600"},
	// Portfolio data changes with every write; clients revalidate with the ETag.
	{prefix: "/api/", value: "private, no-cache"},
}

func cacheControlFor(path string) string {
	for _, r := range cacheRules {
		if r.exact && path == r.prefix {
			return r.value
		}
		if !r.exact && strings.HasPrefix(path, r.prefix) {
			return r.value
		}
	}
	return ""
}

// CachingMiddleware sets a default Cache-Control on successful GET responses
// unless the handler already chose one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil || c.Method() != fiber.MethodGet {
			return err
		}
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			return nil
		}
		if c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return nil
		}
		if v := cacheControlFor(c.Path()); v != "" {
			c.Set(fiber.HeaderCacheControl, v)
		}
		return nil
	}
}
