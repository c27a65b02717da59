package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisReportCache keeps rendered report payloads in Redis
type RedisReportCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisReportCache creates a report cache on an existing client
func NewRedisReportCache(client *redis.Client) *RedisReportCache {
	return &RedisReportCache{client: client, keyPrefix: "acct:report:"}
}

// Get returns the payload stored under key
func (c *RedisReportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read report cache: %w", err)
	}
	return data, true, nil
}

// Set stores a payload for ttl
func (c *RedisReportCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write report cache: %w", err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *RedisReportCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+prefix+"*", 200).Iterator()
	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan report cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate report cache: %w", err)
	}
	return nil
}

// MemoryReportCache is a process-local report cache
type MemoryReportCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryReportCache creates an empty cache
func NewMemoryReportCache() *MemoryReportCache {
	return &MemoryReportCache{entries: make(map[string]entry), now: time.Now}
}

// Get returns the payload stored under key
func (c *MemoryReportCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return []byte(e.value), true, nil
}

// Set stores a payload for ttl
func (c *MemoryReportCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: string(data), expiresAt: c.now().Add(ttl)}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *MemoryReportCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}
