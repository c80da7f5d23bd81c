package ports

import (
	"context"
	"errors"
	"time"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPropertyEvent(ctx context.Context, event domain.PropertyEvent) error
}

// ErrCacheMiss is returned by CacheService.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheService stores serialized values under string keys with a TTL.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// RateCounter is a fixed-window request counter. Increment atomically adds
// one to key and returns the new count; the key expires with the window.
type RateCounter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}
