package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// errKeyRecordedConcurrently is returned when another transaction recorded the
// same key first. It is not a domain error, so callers may retry and will then
// observe the winning voucher.
var errKeyRecordedConcurrently = errors.New("idempotency key recorded concurrently")

// IdempotencyGuard maps client keys to the voucher they produced.
// The idempotency_keys table is authoritative; the cache only shortcuts lookups.
type IdempotencyGuard struct {
	cache  shared.IdempotencyCache
	config shared.IdempotencyConfig
	logger *zap.Logger
}

// NewIdempotencyGuard creates a guard. A nil cache disables the fast path.
func NewIdempotencyGuard(cache shared.IdempotencyCache, config shared.IdempotencyConfig, logger *zap.Logger) *IdempotencyGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotencyGuard{cache: cache, config: config, logger: logger}
}

// Lookup returns the voucher previously produced by key, if any
func (g *IdempotencyGuard) Lookup(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, key string) (*accounting.Voucher, error) {
	if key == "" {
		return nil, nil
	}

	if g.cacheEnabled() {
		voucherID, ok, err := g.cache.Get(ctx, tenantID, key)
		if err != nil {
			g.logger.Warn("Idempotency cache lookup failed, falling back to database",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
		} else if ok {
			v, err := repos.VoucherRepo().FindByID(ctx, tenantID, voucherID)
			if err != nil {
				return nil, err
			}
			if v != nil {
				return v, nil
			}
		}
	}

	record, err := repos.IdempotencyRepo().Find(ctx, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	v, err := repos.VoucherRepo().FindByID(ctx, tenantID, record.VoucherID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("idempotency key %q maps to missing voucher %s", key, record.VoucherID)
	}
	return v, nil
}

// Record stores key → voucherID inside the caller's transaction
func (g *IdempotencyGuard) Record(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, key string, voucherID uuid.UUID, operation string) error {
	if key == "" {
		return nil
	}
	err := repos.IdempotencyRepo().Save(ctx, accounting.NewIdempotencyKey(tenantID, key, voucherID, operation))
	if errors.Is(err, shared.ErrAlreadyExists) {
		return fmt.Errorf("%w: %q", errKeyRecordedConcurrently, key)
	}
	return err
}

// Remember warms the cache after the transaction committed. Failures are logged only.
func (g *IdempotencyGuard) Remember(ctx context.Context, tenantID uuid.UUID, key string, voucherID uuid.UUID) {
	if key == "" || !g.cacheEnabled() {
		return
	}
	if err := g.cache.Put(ctx, tenantID, key, voucherID, g.config.TTL); err != nil {
		g.logger.Warn("Failed to cache idempotency key",
			zap.String("tenant_id", tenantID.String()),
			zap.String("voucher_id", voucherID.String()),
			zap.Error(err))
	}
}

func (g *IdempotencyGuard) cacheEnabled() bool {
	return g != nil && g.cache != nil && g.config.Enabled
}
