// Package cache implementa el cache Redis de listados.
// El cache es advisory: cualquier error de Redis se ignora y se cae al
// store real, nunca se propaga al caller.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open conecta a Redis desde una URL (redis://...).
func Open(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return client, nil
}
