// Package cache provides short-TTL response caching for task listings and
// statistics. Entries live in Redis when REDIS_URL is set and in an
// in-process map otherwise, so a missing Redis never disables the service.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"taskpilot/internal/logging"
	"taskpilot/internal/metrics"
)

// DefaultTTL bounds how stale a cached listing or stats payload may be.
const DefaultTTL = 30 * time.Second

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a Redis-backed byte cache with an in-memory fallback.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration

	mem   map[string]memEntry
	memMu sync.RWMutex
}

// New builds a cache. An empty redisURL (or an unreachable Redis) selects
// the in-memory fallback.
func New(redisURL string) *Cache {
	c := &Cache{
		ttl: DefaultTTL,
		mem: make(map[string]memEntry),
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logging.S().Warnw("invalid REDIS_URL, using in-memory cache", "error", err)
		} else {
			client := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := client.Ping(ctx).Err(); err != nil {
				logging.S().Warnw("redis unreachable, using in-memory cache", "error", err)
				_ = client.Close()
			} else {
				c.redis = client
				logging.S().Infow("cache connected to redis")
			}
		}
	}

	go c.cleanupLoop()
	return c
}

// GetJSON loads a cached value into dest. The bool reports a hit.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	data, ok := c.get(ctx, key)
	if !ok {
		metrics.Get().CacheMissesTotal.WithLabelValues(keyPrefix(key)).Inc()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}
	metrics.Get().CacheHitsTotal.WithLabelValues(keyPrefix(key)).Inc()
	return true
}

// SetJSON stores a value under key for the default TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err == nil {
			return
		}
	}

	c.memMu.Lock()
	c.mem[key] = memEntry{value: data, expiresAt: time.Now().Add(c.ttl)}
	c.memMu.Unlock()
}

// DeletePrefix drops every key sharing a prefix. Called on writes so stale
// listings and stats never outlive a mutation by more than one request.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	if c.redis != nil {
		keys, err := c.redis.Keys(ctx, prefix+"*").Result()
		if err == nil && len(keys) > 0 {
			_ = c.redis.Del(ctx, keys...).Err()
		}
	}

	c.memMu.Lock()
	for k := range c.mem {
		if strings.HasPrefix(k, prefix) {
			delete(c.mem, k)
		}
	}
	c.memMu.Unlock()
}

// Close releases the Redis connection if one exists.
func (c *Cache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	if c.redis != nil {
		val, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			return val, true
		}
	}

	c.memMu.RLock()
	entry, ok := c.mem[key]
	c.memMu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.memMu.Lock()
		for k, e := range c.mem {
			if now.After(e.expiresAt) {
				delete(c.mem, k)
			}
		}
		c.memMu.Unlock()
	}
}

func keyPrefix(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
