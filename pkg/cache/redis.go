package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HungtdFPI/TaskforceAF/pkg/config"
)

// NewRedis returns a configured Redis client. Like NewPostgres, the client is returned together
// with the ping error so the caller can decide whether an unreachable Redis is fatal.
func NewRedis(ctx context.Context, cfg config.RedisConfig, timeout time.Duration) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := &redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if timeout > 0 {
		opts.ReadTimeout = timeout
		opts.WriteTimeout = timeout
		opts.DialTimeout = timeout
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return client, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return client, nil
}
