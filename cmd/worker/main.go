package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/geoportfolio/internal/adapters/nats"
	"github.com/samirrijal/geoportfolio/internal/adapters/postgres"
	"github.com/samirrijal/geoportfolio/internal/adapters/valkey"
	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/core/ports"
	"github.com/samirrijal/geoportfolio/internal/core/usecases"
	"github.com/samirrijal/geoportfolio/internal/pkg/config"
	"github.com/samirrijal/geoportfolio/internal/pkg/logging"
	"github.com/samirrijal/geoportfolio/internal/workflows"
)

func main() {
	cfg, err := config.Load("geoportfolio-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	// Imports outlive the process, so the worker needs shared storage.
	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("worker requires storage.driver=postgres, got %q", cfg.Storage.Driver)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(),
		postgres.WithMaxConns(cfg.Database.MaxConns),
		postgres.WithMaxConnLifetime(cfg.Database.ConnMaxLifetime),
	)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(valkey.Options{
			Addr:      cfg.Valkey.Addr,
			KeyPrefix: cfg.Valkey.KeyPrefix,
			LocalTTL:  cfg.Valkey.LocalTTL,
		})
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			cache = vc
		}
	}

	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, imported properties will not be announced", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	rules := domain.Rules{EstimatedValueCeiling: cfg.Validation.EstimatedValueCeiling}
	properties := usecases.NewPropertyService(
		postgres.NewPropertyRepo(db), postgres.NewPortfolioRepo(db), cache, events, rules,
	)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ImportWorkflow)
	w.RegisterActivity(&workflows.ImportActivities{Properties: properties})

	slog.Info("import worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
