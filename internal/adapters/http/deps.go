package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoportfolio/internal/core/ports"
	"github.com/samirrijal/geoportfolio/internal/core/usecases"
)

// Pinger is a backing service that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimit configures the per-client request quota of each collection.
type RateLimit struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Portfolios  *usecases.PortfolioService
	Properties  *usecases.PropertyService
	RateCounter ports.RateCounter
	RateLimit   RateLimit
	NATS        *nats.Conn
	DB          Pinger
	Cache       Pinger
	DocsPath    string // OpenAPI document, defaults to api/openapi.yaml
	Version     string
	Logger      *slog.Logger // base logger for request logs, defaults to slog.Default
}
