// Package cache provides the optional read-through cache in front of the
// defaults store. Memory (go-cache) and Redis backends are supported.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alcyxob/coaching-platform/internal/config"
	"alcyxob/coaching-platform/internal/domain"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// PrefixedCache wraps a cache.Cache and adds a prefix to all keys. Values are
// stored JSON-encoded. go-cache hands the bytes back as written while the
// redis store returns them as a string, so the backend is untyped.
type PrefixedCache[T any] struct {
	cache  *cache.Cache[any]
	prefix string
	ttl    time.Duration
}

// NewPrefixedCache creates a new prefixed cache wrapper.
func NewPrefixedCache[T any](c *cache.Cache[any], prefix string, ttl time.Duration) *PrefixedCache[T] {
	return &PrefixedCache[T]{cache: c, prefix: prefix, ttl: ttl}
}

// Get retrieves a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Get(ctx context.Context, key string) (T, error) {
	var result T
	value, err := p.cache.Get(ctx, p.prefix+key)
	if err != nil {
		return result, err
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return result, fmt.Errorf("unexpected cached value type %T", value)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, err
	}
	return result, nil
}

// Set stores a value in the cache with the prefixed key.
func (p *PrefixedCache[T]) Set(ctx context.Context, key string, object T) error {
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	return p.cache.Set(ctx, p.prefix+key, data, store.WithExpiration(p.ttl))
}

// Delete removes a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Delete(ctx context.Context, key string) error {
	return p.cache.Delete(ctx, p.prefix+key)
}

// StoreType returns the type of the backing store, e.g. "go-cache" or "redis".
func (p *PrefixedCache[T]) StoreType() string {
	return p.cache.GetCodec().GetStore().GetType()
}

// DefaultsCache caches defaults blobs by (kind, language).
type DefaultsCache struct {
	cache *PrefixedCache[domain.Defaults]
}

// NewDefaultsCache builds the cache selected by cfg. It returns nil for
// cache type "none"; callers treat a nil cache as disabled.
func NewDefaultsCache(cfg config.CacheConfig) (*DefaultsCache, error) {
	var backend *cache.Cache[any]
	switch cfg.Type {
	case config.CacheNone, "":
		return nil, nil
	case config.CacheMemory:
		backend = newMemoryCache(cfg.TTL)
	case config.CacheRedis:
		var err error
		if backend, err = newRedisCache(cfg.RedisURL); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
	return &DefaultsCache{cache: NewPrefixedCache[domain.Defaults](backend, "defaults:", cfg.TTL)}, nil
}

func defaultsKey(kind domain.DefaultsKind, language string) string {
	return string(kind) + ":" + language
}

// Get returns the cached blob. Any error, including a miss, means "not cached".
func (c *DefaultsCache) Get(ctx context.Context, kind domain.DefaultsKind, language string) (*domain.Defaults, error) {
	d, err := c.cache.Get(ctx, defaultsKey(kind, language))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Set stores the blob.
func (c *DefaultsCache) Set(ctx context.Context, d *domain.Defaults) error {
	return c.cache.Set(ctx, defaultsKey(d.Kind, d.Language), *d)
}

// Invalidate drops the entry for (kind, language).
func (c *DefaultsCache) Invalidate(ctx context.Context, kind domain.DefaultsKind, language string) error {
	return c.cache.Delete(ctx, defaultsKey(kind, language))
}

func newMemoryCache(ttl time.Duration) *cache.Cache[any] {
	gocacheClient := gocache.New(ttl, 2*ttl)
	return cache.New[any](go_store.NewGoCache(gocacheClient))
}

func newRedisCache(redisURL string) (*cache.Cache[any], error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		// plain host:port
		opts = &redis.Options{Addr: redisURL}
	}
	return cache.New[any](redis_store.NewRedis(redis.NewClient(opts))), nil
}
