package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "ledger:idempotency:"

// RedisIdempotencyCache implements IdempotencyCache on Redis so that every
// instance of the service shares the same fast path
type RedisIdempotencyCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyCache connects to Redis and verifies the connection
func NewRedisIdempotencyCache(ctx context.Context, opts *redis.Options) (*RedisIdempotencyCache, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisIdempotencyCacheWithClient(client, ""), nil
}

// NewRedisIdempotencyCacheWithClient wraps an existing client
func NewRedisIdempotencyCacheWithClient(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the voucher id cached for the key
func (c *RedisIdempotencyCache) Get(ctx context.Context, tenantID uuid.UUID, key string) (uuid.UUID, bool, error) {
	val, err := c.client.Get(ctx, c.key(tenantID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	voucherID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt idempotency cache value %q: %w", val, err)
	}
	return voucherID, true, nil
}

// Put caches the voucher id for the key. The mapping never changes once
// written, so an existing value is left in place.
func (c *RedisIdempotencyCache) Put(ctx context.Context, tenantID uuid.UUID, key string, voucherID uuid.UUID, ttl time.Duration) error {
	if err := c.client.SetNX(ctx, c.key(tenantID, key), voucherID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to write idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisIdempotencyCache) Close() error {
	return c.client.Close()
}

func (c *RedisIdempotencyCache) key(tenantID uuid.UUID, key string) string {
	return c.keyPrefix + shared.IdempotencyCacheKey(tenantID, key)
}

var _ shared.IdempotencyCache = (*RedisIdempotencyCache)(nil)
