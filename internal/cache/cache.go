// Package cache holds time-bounded copies of values keyed by string.
// Entries expire on their own; there is no invalidation API.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL key-value store. A miss is (zero, false, nil).
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
}
