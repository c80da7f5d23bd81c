// Package metrics exposes the Prometheus collectors of the portfolio service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const namespace = "geoportfolio"

func counter(subsystem, name, help string) prometheus.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	})
}

func counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func gauge(subsystem, name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	})
}

var (
	httpRequests = counterVec("http", "requests_total",
		"HTTP requests by route pattern and status", "method", "route", "status")
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})
	httpResponseBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response body size",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "route"})

	// RateLimited counts requests rejected per limiter scope.
	RateLimited = counterVec("http", "rate_limited_total",
		"Requests rejected by the rate limiter", "scope")

	// PropertyWrites counts committed property writes by action
	// (created, updated, deleted).
	PropertyWrites = counterVec("portfolio", "property_writes_total",
		"Committed property writes", "action")
	// ValidationFailures counts rejected records per error key.
	ValidationFailures = counterVec("portfolio", "validation_failures_total",
		"Validation failures by error key", "key")
	PropertiesImported = counter("portfolio", "properties_imported_total",
		"Properties stored through bulk import")

	EventPublishErrors = counter("events", "publish_errors_total",
		"Property events that could not be published")

	CacheHits   = counterVec("cache", "hits_total", "Read-through cache hits", "operation")
	CacheMisses = counterVec("cache", "misses_total", "Read-through cache misses", "operation")

	ActiveWebSockets = gauge("ws", "active_connections", "Open WebSocket subscriptions")

	dbConnsTotal    = gauge("db", "pool_conns_open", "Connections open in the pool")
	dbConnsAcquired = gauge("db", "pool_conns_acquired", "Connections acquired from the pool")
	dbConnsIdle     = gauge("db", "pool_conns_idle", "Idle connections in the pool")
)

// Middleware records request count, latency and response size. Requests
// are labelled by route pattern, so /api/properties/7 and
// /api/properties/8 share a series.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		method := c.Method()

		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().StatusCode())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		httpResponseBytes.WithLabelValues(method, route).Observe(float64(len(c.Response().Body())))
		return err
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics copies a pgx pool snapshot into the pool gauges.
func UpdateDBPoolMetrics(stat *pgxpool.Stat) {
	if stat == nil {
		return
	}
	dbConnsTotal.Set(float64(stat.TotalConns()))
	dbConnsAcquired.Set(float64(stat.AcquiredConns()))
	dbConnsIdle.Set(float64(stat.IdleConns()))
}
