package reclaim

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLease is a Lease backed by a Redis key set with NX and a TTL.
// The key is never released explicitly; it expires on its own.
type RedisLease struct {
	client redis.Cmdable
	key    string
	owner  string
}

var _ Lease = (*RedisLease)(nil)

// NewRedisLease creates a lease on key. Each instance gets a unique owner
// token so replicas can tell who swept last.
func NewRedisLease(client redis.Cmdable, key string) *RedisLease {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("redis client cannot be nil")
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}

	return &RedisLease{
		client: client,
		key:    key,
		owner:  fmt.Sprintf("%s/%s", host, uuid.NewString()),
	}
}

// Acquire implements Lease.
func (l *RedisLease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set lease key %s: %w", l.key, err)
	}
	return ok, nil
}

// Owner returns the token this instance writes into the lease key.
func (l *RedisLease) Owner() string {
	return l.owner
}

// NewRedisClient parses redisURL and returns a connected client, failing if
// the server does not answer a ping.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis not accessible: %w", err)
	}
	return client, nil
}
