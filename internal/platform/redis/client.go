// Package redis owns the shared Redis connection used by the result and
// session stores.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"idproof/internal/platform/config"
)

// Client is the process-wide Redis handle. It embeds the go-redis client so
// stores can use it directly.
type Client struct {
	*redis.Client
}

// New connects and verifies the connection with a ping. An empty URL returns
// a nil client, which the binaries treat as "run on in-memory stores".
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health reports connection liveness for the readiness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
