package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// RateCounter implements ports.RateCounter with INCR and EXPIRE so counts
// are shared by every API replica.
type RateCounter struct {
	client valkey.Client
	prefix string
}

// windowSeconds rounds a window up to whole seconds, the EXPIRE resolution.
func windowSeconds(window time.Duration) int64 {
	secs := int64((window + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Increment bumps key and sets its expiry on first use. Both commands go out
// in one round trip.
func (r *RateCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := r.prefix + key
	results := r.client.DoMulti(ctx,
		r.client.B().Incr().Key(k).Build(),
		r.client.B().Expire().Key(k).Seconds(windowSeconds(window)).Nx().Build(),
	)
	n, err := results[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if err := results[1].Error(); err != nil {
		return 0, fmt.Errorf("expire %s: %w", key, err)
	}
	return n, nil
}
