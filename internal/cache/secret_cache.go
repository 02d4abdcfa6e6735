package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SecretCache guarda secretos de corta vida (OTP, tokens de reseteo) con TTL.
type SecretCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// CompareAndDelete borra la clave solo si su valor coincide con expected.
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

// NewMemory crea un cache en memoria, usado cuando Redis no esta configurado.
func NewMemory() SecretCache {
	return newMemoryWithClock(time.Now)
}

func newMemoryWithClock(now func() time.Time) *memoryCache {
	return &memoryCache{
		items: make(map[string]memoryEntry),
		now:   now,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.lookup(key)
	return entry.value, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		return errors.New("cache ttl must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.lookup(key)
	if !ok || entry.value != expected {
		return false, nil
	}
	delete(c.items, key)
	return true, nil
}

// lookup asume el lock tomado y purga entradas vencidas.
func (c *memoryCache) lookup(key string) (memoryEntry, bool) {
	entry, ok := c.items[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.items, key)
		return memoryEntry{}, false
	}
	return entry, true
}

const redisCompareAndDeleteScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisCache struct {
	client  redisKV
	prefix  string
	timeout time.Duration
}

// NewRedis crea un SecretCache sobre Redis. Todas las claves llevan prefix.
func NewRedis(client *redis.Client, prefix string) SecretCache {
	if client == nil {
		return nil
	}
	return &redisCache{
		client:  client,
		prefix:  prefix,
		timeout: 500 * time.Millisecond,
	}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		return errors.New("cache ttl must be positive")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Del(ctx, c.prefix+key).Err()
}

func (c *redisCache) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	n, err := c.client.Eval(ctx, redisCompareAndDeleteScript, []string{c.prefix + key}, expected).Int()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
