package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/St1cky1/task-tracker/internal/config"
	"github.com/redis/go-redis/v9"
)

// ResponseCache stores rendered response bodies in Redis under a key prefix.
type ResponseCache struct {
	rc     *redis.Client
	prefix string
}

func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rc, nil
}

func NewResponseCache(rc *redis.Client, prefix string) *ResponseCache {
	return &ResponseCache{rc: rc, prefix: prefix}
}

// Get reports a miss as (nil, false, nil).
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.rc.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cache: %w", err)
	}
	return body, true, nil
}

func (c *ResponseCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if err := c.rc.Set(ctx, c.prefix+key, body, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}
