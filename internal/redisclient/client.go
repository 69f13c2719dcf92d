package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Client is a thin wrapper over redis used as a best-effort order status
// cache. The database stays authoritative; a cold or unavailable cache only
// costs a round trip.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, statusTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: statusTTL}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetOrderStatus returns the cached status for an order and whether it was
// present.
func (c *Client) GetOrderStatus(ctx context.Context, orderID uuid.UUID) (string, bool, error) {
	status, err := c.rdb.Get(ctx, statusKey(orderID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

// SetOrderStatus caches the status for an order with the configured TTL
func (c *Client) SetOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	return c.rdb.Set(ctx, statusKey(orderID), status, c.ttl).Err()
}

// InvalidateOrderStatus drops the cached status for an order
func (c *Client) InvalidateOrderStatus(ctx context.Context, orderID uuid.UUID) error {
	return c.rdb.Del(ctx, statusKey(orderID)).Err()
}

func statusKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:status:%s", orderID)
}
