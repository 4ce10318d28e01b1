package redis

import (
	"context"
	"time"

	goRedis "github.com/redis/go-redis/v9"

	"github.com/titipin/backend/internal/config"
)

const pingTimeout = 5 * time.Second

// NewClient connects to Redis and verifies the connection. Redis backs the
// snapshot cache and the per-session update fan-out, so a dead connection at
// boot is a hard failure.
func NewClient(cfg config.RedisConfig) (*goRedis.Client, error) {
	url := cfg.URL
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := goRedis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := goRedis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
