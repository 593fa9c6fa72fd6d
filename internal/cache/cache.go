package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ppiankov/linkvet/internal/model"
)

// Cache defines the interface for caching fetched page text
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// keyPrefix namespaces every key; bump the version when the stored format changes
const keyPrefix = "linkvet:v1:"

// CacheKey generates a cache key from a URL
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// New builds the cache backend selected by configuration.
// Returns nil when caching is disabled.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "memory":
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(cfg.Dir, cfg.DiskTTL), nil
	case "layered", "":
		return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), nil
	case "redis":
		rc, err := NewRedisCache(RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.DiskTTL,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, layered, redis)", cfg.Backend)
	}
}
