package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const readyTimeout = 3 * time.Second

// dependencyCheck probes one backing service.
type dependencyCheck struct {
	name     string
	required bool                            // a failure makes the service not ready
	probe    func(ctx context.Context) error // nil means not configured
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

func readinessChecks(deps *Dependencies) []dependencyCheck {
	checks := []dependencyCheck{
		{name: "database", required: true},
		{name: "cache"},
		{name: "nats"},
	}
	if deps.DB != nil {
		checks[0].probe = deps.DB.Ping
	}
	if deps.Cache != nil {
		checks[1].probe = deps.Cache.Ping
	}
	if nc := deps.NATS; nc != nil {
		// A configured but disconnected broker means events are being lost.
		checks[2].required = true
		checks[2].probe = func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	}
	return checks
}

// ReadyHandler probes storage, cache and NATS in parallel. Storage must be
// configured and reachable; the cache may fail without marking the service
// unready since reads fall through to storage.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		results := make([]string, len(checks))
		var g errgroup.Group
		for i, chk := range checks {
			g.Go(func() error {
				switch {
				case chk.probe == nil:
					results[i] = "not configured"
				default:
					if err := chk.probe(ctx); err != nil {
						results[i] = "error: " + err.Error()
					} else {
						results[i] = "ok"
					}
				}
				return nil
			})
		}
		_ = g.Wait()

		out := make(map[string]string, len(checks))
		ready := true
		for i, chk := range checks {
			out[chk.name] = results[i]
			if chk.required && results[i] != "ok" {
				ready = false
			}
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": out,
		})
	}
}
