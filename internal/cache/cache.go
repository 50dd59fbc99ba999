// Package cache provides byte caches used to memoize embeddings by exact text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/groundcheck/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a cache key for text within a namespace (e.g. an embedding model)
func Key(namespace, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "groundcheck:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg. A disabled cache returns nil; a
// cache without a directory is memory-only.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
