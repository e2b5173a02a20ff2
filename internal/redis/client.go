package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the startup connectivity check.
const pingTimeout = 3 * time.Second

// Client wraps the shared Redis client used by the event stream, the
// timeline cache and the watch relay.
type Client struct {
	*redis.Client
}

// Connect parses redisURL, opens a client and pings it so startup fails fast
// when Redis is unreachable.
// URL format: redis://[:password@]host:port[/db]
func Connect(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	c := &Client{Client: redis.NewClient(opts)}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Client.Ping(pingCtx).Err(); err != nil {
		c.Client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[Redis] Connected: addr=%s db=%d", opts.Addr, opts.DB)
	return c, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}
