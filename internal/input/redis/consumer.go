package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Config configures the Redis line consumer.
type Config struct {
	Addr       string
	Password   string
	DB         int
	Key        string
	PopTimeout time.Duration
}

// Consumer drains raw log lines from a Redis list. The run stays a
// bounded batch: the list is popped until empty, not followed.
type Consumer struct {
	client     *redis.Client
	key        string
	popTimeout time.Duration
}

// NewConsumer creates a Redis consumer for list-based queues.
func NewConsumer(cfg Config) (*Consumer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	if cfg.PopTimeout == 0 {
		cfg.PopTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Consumer{
		client:     client,
		key:        cfg.Key,
		popTimeout: cfg.PopTimeout,
	}, nil
}

// DrainLines pops every line currently queued on the list. The first
// pop blocks up to the configured timeout so a producer finishing
// slightly late is still picked up; after that the drain is
// non-blocking and stops at the first empty reply.
func (c *Consumer) DrainLines(ctx context.Context) ([]string, error) {
	var lines []string

	res, err := c.client.BLPop(ctx, c.popTimeout, c.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) == 2 {
		lines = append(lines, res[1])
	}

	for {
		line, err := c.client.LPop(ctx, c.key).Result()
		if err == redis.Nil {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.client.Close()
}
