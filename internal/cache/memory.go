package cache

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Cloner is implemented by values holding slices or pointers. Memory stores
// and returns clones of such values so callers never share them.
type Cloner[T any] interface {
	Clone() T
}

func cloneValue[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// Memory is an in-process TTL cache safe for concurrent use.
type Memory[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	now   func() time.Time
}

func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{
		items: make(map[string]entry[T]),
		now:   time.Now,
	}
}

func (c *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// re-check: a Set may have landed between the locks
		if cur, ok := c.items[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		var zero T
		return zero, false, nil
	}
	return cloneValue(e.value), true, nil
}

func (c *Memory[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	c.mu.Lock()
	c.items[key] = entry[T]{value: cloneValue(value), expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *Memory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
