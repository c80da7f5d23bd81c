package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoportfolio/internal/adapters/http"
	"github.com/samirrijal/geoportfolio/internal/adapters/memory"
	natsadapter "github.com/samirrijal/geoportfolio/internal/adapters/nats"
	"github.com/samirrijal/geoportfolio/internal/adapters/postgres"
	"github.com/samirrijal/geoportfolio/internal/adapters/valkey"
	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/core/ports"
	"github.com/samirrijal/geoportfolio/internal/core/usecases"
	"github.com/samirrijal/geoportfolio/internal/pkg/config"
	"github.com/samirrijal/geoportfolio/internal/pkg/logging"
	"github.com/samirrijal/geoportfolio/internal/pkg/metrics"
	"github.com/samirrijal/geoportfolio/internal/pkg/telemetry"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("geoportfolio-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	// Storage
	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.close()

	// Cache and rate counter. Without Valkey, quotas are counted per instance.
	var (
		cache       ports.CacheService
		cachePinger http.Pinger
		counter     ports.RateCounter = memory.NewRateCounter()
	)
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(valkey.Options{
			Addr:      cfg.Valkey.Addr,
			KeyPrefix: cfg.Valkey.KeyPrefix,
			LocalTTL:  cfg.Valkey.LocalTTL,
		})
		if err != nil {
			slog.Warn("valkey unavailable, using in-process rate counter", "error", err)
		} else {
			defer vc.Close()
			cache, cachePinger, counter = vc, vc, vc.Counter()
		}
	}

	// NATS
	var (
		events   ports.EventPublisher
		natsConn *nats.Conn
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, property events disabled", "error", err)
		} else {
			defer pub.Close()
			events, natsConn = pub, pub.Conn()
		}
	}

	// Use cases
	rules := domain.Rules{EstimatedValueCeiling: cfg.Validation.EstimatedValueCeiling}
	portfolioSvc := usecases.NewPortfolioService(store.portfolios, store.properties, cache)
	propertySvc := usecases.NewPropertyService(store.properties, store.portfolios, cache, events, rules)

	deps := &http.Dependencies{
		Portfolios:  portfolioSvc,
		Properties:  propertySvc,
		RateCounter: counter,
		RateLimit: http.RateLimit{
			Enabled: cfg.RateLimit.Enabled,
			Limit:   cfg.RateLimit.Limit,
			Window:  cfg.RateLimit.Window,
		},
		NATS:    natsConn,
		DB:      store.pinger,
		Cache:   cachePinger,
		Version: version,
		Logger:  logger,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		AppName:      "GeoPortfolio API",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Link, X-Total-Count, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	if store.db != nil {
		go reportPoolStats(ctx, store.db)
	}

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// storage bundles the repositories of the configured backend.
type storage struct {
	portfolios ports.PortfolioRepository
	properties ports.PropertyRepository
	pinger     http.Pinger
	db         *postgres.DB
	close      func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		slog.Warn("using in-memory storage, data is lost on restart")
		s := memory.NewStore()
		return &storage{
			portfolios: s.Portfolios(),
			properties: s.Properties(),
			pinger:     s,
			close:      func() {},
		}, nil
	case "postgres":
		db, err := postgres.New(ctx, cfg.Database.DSN(),
			postgres.WithMaxConns(cfg.Database.MaxConns),
			postgres.WithMaxConnLifetime(cfg.Database.ConnMaxLifetime),
		)
		if err != nil {
			return nil, err
		}
		if v, err := db.PostGISVersion(ctx); err != nil {
			slog.Warn("postgis not available, run migrations", "error", err)
		} else {
			slog.Info("database connected", "postgis", v, "max_conns", cfg.Database.MaxConns)
		}
		return &storage{
			portfolios: postgres.NewPortfolioRepo(db),
			properties: postgres.NewPropertyRepo(db),
			pinger:     db,
			db:         db,
			close:      db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
