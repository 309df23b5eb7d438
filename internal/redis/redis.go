package redis

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Client wraps go-redis as a SetNX-based distributed lock. The notifier
// workers lock per notification id so a redelivered event is not pushed by
// two consumers at once.
type Client struct {
	ctx         context.Context
	redisClient *redis.Client
}

func NewClient(ctx context.Context, dsn string) (*Client, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, err
	}

	return &Client{
		ctx:         ctx,
		redisClient: redis.NewClient(opts),
	}, nil
}

// NewClientWithAddr connects by bare address, used by the tests against miniredis.
func NewClientWithAddr(ctx context.Context, addr string) *Client {
	return &Client{
		ctx:         ctx,
		redisClient: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (c *Client) Lock(lockKey string, lockTimeDuration time.Duration) (result bool, err error) {
	result, err = c.redisClient.SetNX(c.ctx, lockKey, 1, lockTimeDuration).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

func (c *Client) Unlock(lockKey string) (err error) {
	return c.redisClient.Del(c.ctx, lockKey).Err()
}

func (c *Client) Close() (err error) {
	return c.redisClient.Close()
}

func (c *Client) Ping(ctx context.Context) (err error) {
	return c.redisClient.Ping(ctx).Err()
}
