package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdempotencyCache is a fast lookup in front of the durable idempotency table.
// It maps a tenant-scoped client key to the voucher the key produced.
// The table stays authoritative; a cache miss only costs a database read.
type IdempotencyCache interface {
	// Get returns the voucher id recorded for the key, or false when unknown
	Get(ctx context.Context, tenantID uuid.UUID, key string) (uuid.UUID, bool, error)

	// Put records the voucher id for the key with a TTL
	Put(ctx context.Context, tenantID uuid.UUID, key string, voucherID uuid.UUID, ttl time.Duration) error

	// Close releases resources held by the cache
	Close() error
}

// IdempotencyConfig holds configuration for the idempotency cache
type IdempotencyConfig struct {
	// TTL bounds how long a key stays cached; the database mapping is permanent
	TTL time.Duration

	// Enabled determines whether the cache is consulted at all
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}

// IdempotencyCacheKey builds the tenant-scoped cache key
func IdempotencyCacheKey(tenantID uuid.UUID, key string) string {
	return tenantID.String() + ":" + key
}
