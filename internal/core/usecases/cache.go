package usecases

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"

	"github.com/samirrijal/geoportfolio/internal/core/ports"
	"github.com/samirrijal/geoportfolio/internal/pkg/logging"
	"github.com/samirrijal/geoportfolio/internal/pkg/metrics"
)

// cacheTTLSeconds bounds staleness of entries whose invalidation was lost.
const cacheTTLSeconds = 600

// readThrough serves key from cache, or calls load and caches its result.
// Cache failures are logged and never fail the read.
func readThrough[T any](ctx context.Context, cache ports.CacheService, operation, key string, load func(context.Context) (*T, error)) (*T, error) {
	if cache == nil {
		return load(ctx)
	}

	data, err := cache.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			metrics.CacheHits.WithLabelValues(operation).Inc()
			return &v, nil
		}
		logging.FromContext(ctx).Warn("discarding undecodable cache entry", "key", key, "error", err)
	case !errors.Is(err, ports.ErrCacheMiss):
		logging.FromContext(ctx).Warn("cache read failed", "key", key, "error", err)
	}
	metrics.CacheMisses.WithLabelValues(operation).Inc()

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := cache.Set(ctx, key, data, cacheTTLSeconds); err != nil {
			logging.FromContext(ctx).Warn("cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}
