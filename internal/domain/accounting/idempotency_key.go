package accounting

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxIdempotencyKeyLength bounds client-supplied keys
const MaxIdempotencyKeyLength = 255

// IdempotencyKey permanently maps a client key to the voucher it produced
type IdempotencyKey struct {
	TenantID  uuid.UUID
	Key       string
	VoucherID uuid.UUID
	Operation string
	CreatedAt time.Time
}

// NormalizeIdempotencyKey trims the key and checks its length. Empty means no key.
func NormalizeIdempotencyKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if len(key) > MaxIdempotencyKeyLength {
		return "", shared.NewDomainError("INVALID_IDEMPOTENCY_KEY", "Idempotency key cannot exceed 255 characters")
	}
	return key, nil
}

// NewIdempotencyKey records that key produced voucherID
func NewIdempotencyKey(tenantID uuid.UUID, key string, voucherID uuid.UUID, operation string) *IdempotencyKey {
	return &IdempotencyKey{
		TenantID:  tenantID,
		Key:       key,
		VoucherID: voucherID,
		Operation: operation,
		CreatedAt: time.Now(),
	}
}
