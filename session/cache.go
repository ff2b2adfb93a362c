package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache 短期 JSON 缓存（仪表盘统计等）；rdb 为 nil 时所有操作都是空操作
type Cache struct {
	rdb    *redis.Client
	prefix string
}

func NewCache(rdb *redis.Client, prefix string) *Cache { return &Cache{rdb: rdb, prefix: prefix} }

// Get 命中返回 true
func (c *Cache) Get(ctx context.Context, k string, dest any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	b, err := c.rdb.Get(ctx, c.prefix+k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, k string, v any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+k, b, ttl).Err()
}

// Invalidate 删除给定 key
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.rdb.Del(ctx, full...).Err()
}

// Once 在 ttl 内同一个 key 只返回一次 true（SETNX）
func Once(ctx context.Context, rdb *redis.Client, k string, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}
	return rdb.SetNX(ctx, k, 1, ttl).Result()
}
