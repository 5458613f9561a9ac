package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the sync pipeline.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks if redis is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func syncLockKey(leadID uuid.UUID) string {
	return fmt.Sprintf("sync_lock:%s", leadID)
}

// AcquireSyncLock attempts to take the per-lead advisory lock. Two concurrent
// syncs of the same lead could otherwise both pass the idempotency check and
// create a duplicate deal; the lock closes that window across processes.
func (c *Client) AcquireSyncLock(ctx context.Context, leadID uuid.UUID, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, syncLockKey(leadID), "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseSyncLock releases the per-lead advisory lock.
func (c *Client) ReleaseSyncLock(ctx context.Context, leadID uuid.UUID) error {
	return c.rdb.Del(ctx, syncLockKey(leadID)).Err()
}

// RefreshSyncLock extends the TTL of a held lock.
func (c *Client) RefreshSyncLock(ctx context.Context, leadID uuid.UUID, ttl time.Duration) error {
	return c.rdb.Expire(ctx, syncLockKey(leadID), ttl).Err()
}
