package cache

import (
	"context"
	"time"

	"personal-info-parser/internal/model"
)

// NoOpCache is a cache implementation that does nothing.
// Used when CACHE_PROVIDER=none or Redis is unavailable: every lookup is a miss.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, key string) (*model.Result, error) {
	return nil, nil
}

func (c *NoOpCache) Set(ctx context.Context, key string, result *model.Result, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
