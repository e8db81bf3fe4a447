package cache

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Idempotency cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// IdempotencyCacheFactory creates the idempotency cache selected by configuration
type IdempotencyCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyCacheFactoryOption is a functional option for configuring the factory
type IdempotencyCacheFactoryOption func(*IdempotencyCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyCacheFactoryOption {
	return func(f *IdempotencyCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the in-memory cache.
// Default is true.
func WithInMemoryFallback(allow bool) IdempotencyCacheFactoryOption {
	return func(f *IdempotencyCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyCacheFactory creates a new factory
func NewIdempotencyCacheFactory(cfg config.RedisConfig, opts ...IdempotencyCacheFactoryOption) *IdempotencyCacheFactory {
	f := &IdempotencyCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the cache for backend, or nil for BackendNone.
// A nil cache sends every idempotency lookup to the database.
func (f *IdempotencyCacheFactory) Create(ctx context.Context, backend string) (shared.IdempotencyCache, error) {
	switch backend {
	case BackendNone:
		f.logger.Info("idempotency cache disabled")
		return nil, nil
	case BackendMemory, "":
		f.logger.Info("using in-memory idempotency cache")
		return NewInMemoryIdempotencyCache(), nil
	case BackendRedis:
		return f.createRedis(ctx)
	default:
		return nil, fmt.Errorf("unknown idempotency cache backend %q", backend)
	}
}

func (f *IdempotencyCacheFactory) createRedis(ctx context.Context) (shared.IdempotencyCache, error) {
	c, err := NewRedisIdempotencyCache(ctx, &redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis idempotency cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency cache but unavailable: %w", err)
	}

	// Each instance then keeps its own cache; the database table still rejects duplicates.
	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency cache", zap.Error(err))
	return NewInMemoryIdempotencyCache(), nil
}
