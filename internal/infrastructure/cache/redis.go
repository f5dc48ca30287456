// Package cache provides a Redis-backed read cache for customer repositories.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/motoshop/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the connectivity check in NewRedisClient
const pingTimeout = 5 * time.Second

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}
