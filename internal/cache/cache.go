package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"personal-info-parser/internal/model"
)

// Cache stores extraction results for repeated inputs.
type Cache interface {
	// Get retrieves a cached result by key.
	// Returns nil if not found
	Get(ctx context.Context, key string) (*model.Result, error)

	// Set stores a result with TTL
	Set(ctx context.Context, key string, result *model.Result, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Key derives a cache key from the source type, the model that produced the
// result and the raw payload. The payload itself is never stored in the key.
func Key(source model.SourceType, modelName string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(modelName))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
