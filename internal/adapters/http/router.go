package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/geoportfolio/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes. Fiber's
// default non-strict routing serves every path with and without a trailing
// slash.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Request-scoped logger and access log
	app.Use(RequestLogMiddleware(deps.Logger))

	// Tracing (OpenTelemetry)
	app.Use(TracingMiddleware())

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	// Each collection has its own quota
	properties := app.Group("/api/properties", RateLimitMiddleware("properties", deps.RateCounter, deps.RateLimit))
	properties.Get("/", withTimeout(ListPropertiesHandler(deps)))
	properties.Post("/", withTimeout(CreatePropertyHandler(deps)))
	properties.Get("/:id", withTimeout(GetPropertyHandler(deps)))
	properties.Put("/:id", withTimeout(UpdatePropertyHandler(deps)))
	properties.Delete("/:id", withTimeout(DeletePropertyHandler(deps)))

	portfolios := app.Group("/api/portfolios", RateLimitMiddleware("portfolios", deps.RateCounter, deps.RateLimit))
	portfolios.Get("/", withTimeout(ListPortfoliosHandler(deps)))
	portfolios.Post("/", withTimeout(CreatePortfolioHandler(deps)))
	portfolios.Get("/:id", withTimeout(GetPortfolioHandler(deps)))
	portfolios.Put("/:id", withTimeout(UpdatePortfolioHandler(deps)))
	portfolios.Delete("/:id", withTimeout(DeletePortfolioHandler(deps)))
	portfolios.Get("/:id/properties", withTimeout(PortfolioPropertiesHandler(deps)))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	docsPath := deps.DocsPath
	if docsPath == "" {
		docsPath = "api/openapi.yaml"
	}
	SetupDocs(app, docsPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
