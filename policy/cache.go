package policy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// MemoryRoleCache is a process-local RoleCache.
type MemoryRoleCache struct {
	mu      sync.RWMutex
	entries map[string]roleEntry
	now     func() time.Time
}

type roleEntry struct {
	isAdmin   bool
	expiresAt time.Time
}

func NewMemoryRoleCache() *MemoryRoleCache {
	return &MemoryRoleCache{entries: make(map[string]roleEntry), now: time.Now}
}

func (c *MemoryRoleCache) Get(_ context.Context, accountID string) (bool, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[accountID]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return false, false, nil
	}
	return e.isAdmin, true, nil
}

func (c *MemoryRoleCache) Set(_ context.Context, accountID string, isAdmin bool, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[accountID] = roleEntry{isAdmin: isAdmin, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryRoleCache) Delete(_ context.Context, accountID string) error {
	c.mu.Lock()
	delete(c.entries, accountID)
	c.mu.Unlock()
	return nil
}

// RedisRoleCache shares role claims between server instances, so an admin
// action on one instance is seen by all of them.
type RedisRoleCache struct {
	rdb *redis.Client
}

func NewRedisRoleCache(rdb *redis.Client) *RedisRoleCache {
	return &RedisRoleCache{rdb: rdb}
}

// NewRedisClient parses url and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func roleKey(accountID string) string {
	return "role:" + accountID
}

func (c *RedisRoleCache) Get(ctx context.Context, accountID string) (bool, bool, error) {
	val, err := c.rdb.Get(ctx, roleKey(accountID)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get role: %w", err)
	}
	return val == "admin", true, nil
}

func (c *RedisRoleCache) Set(ctx context.Context, accountID string, isAdmin bool, ttl time.Duration) error {
	val := "user"
	if isAdmin {
		val = "admin"
	}
	return c.rdb.Set(ctx, roleKey(accountID), val, ttl).Err()
}

func (c *RedisRoleCache) Delete(ctx context.Context, accountID string) error {
	return c.rdb.Del(ctx, roleKey(accountID)).Err()
}
