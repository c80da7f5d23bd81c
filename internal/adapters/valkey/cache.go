package valkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/geoportfolio/internal/core/ports"
)

// Options configures the Valkey client.
type Options struct {
	Addr string
	// KeyPrefix namespaces every key so several services can share a server.
	KeyPrefix string
	// LocalTTL enables server-assisted client-side caching of reads for up to
	// this long. Zero disables it.
	LocalTTL time.Duration
}

// Cache implements ports.CacheService using Valkey (Redis-compatible).
type Cache struct {
	client   valkey.Client
	prefix   string
	localTTL time.Duration
}

// New creates a new Valkey cache client.
func New(opts Options) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{opts.Addr},
		DisableCache: opts.LocalTTL <= 0,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client, prefix: opts.KeyPrefix, localTTL: opts.LocalTTL}, nil
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get retrieves a value by key. A missing key yields ports.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	var resp valkey.ValkeyResult
	if c.localTTL > 0 {
		resp = c.client.DoCache(ctx, c.client.B().Get().Key(c.key(key)).Cache(), c.localTTL)
	} else {
		resp = c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build())
	}

	b, err := resp.AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get %s: %w", key, err)
	}
	return b, nil
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := c.client.B().Set().Key(c.key(key)).Value(valkey.BinaryString(value)).Ex(time.Duration(ttlSeconds) * time.Second).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.client.Do(ctx, c.client.B().Del().Key(c.key(key)).Build()).Error()
	if err != nil && !errors.Is(err, valkey.Nil) {
		return fmt.Errorf("valkey del %s: %w", key, err)
	}
	return nil
}

// Ping checks that the server answers.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Counter returns a rate counter sharing this client and key prefix.
func (c *Cache) Counter() *RateCounter {
	return &RateCounter{client: c.client, prefix: c.prefix}
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
