package service

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache failures are misses; they never surface to callers.
type Cache interface {
	Get(ctx context.Context, key string) (Reading, bool)
	Set(ctx context.Context, key string, r Reading, ttl time.Duration)
}

type memoryEntry struct {
	r       Reading
	expires time.Time
}

type MemoryCache struct {
	mu  sync.Mutex
	m   map[string]memoryEntry
	now func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return Reading{}, false
	}
	if c.now().After(e.expires) {
		delete(c.m, key)
		return Reading{}, false
	}
	return e.r, true
}

func (c *MemoryCache) Set(_ context.Context, key string, r Reading, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = memoryEntry{r: r, expires: c.now().Add(ttl)}
}

// RedisCache shares readings between processes so several accounts do not
// spend the API quota on the same symbol.
type RedisCache struct {
	client redis.UniversalClient
	log    *zap.Logger
}

func NewRedisCache(client redis.UniversalClient, log *zap.Logger) *RedisCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Reading, bool) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("redis get", zap.String("key", key), zap.Error(err))
		}
		return Reading{}, false
	}
	var r Reading
	if err := sonic.Unmarshal(b, &r); err != nil {
		return Reading{}, false
	}
	return r, true
}

func (c *RedisCache) Set(ctx context.Context, key string, r Reading, ttl time.Duration) {
	b, err := sonic.Marshal(r)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		c.log.Debug("redis set", zap.String("key", key), zap.Error(err))
	}
}
