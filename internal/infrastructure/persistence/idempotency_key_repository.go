package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormIdempotencyKeyRepository stores the permanent key to voucher mapping
type GormIdempotencyKeyRepository struct {
	db *gorm.DB
}

// NewGormIdempotencyKeyRepository creates a new GormIdempotencyKeyRepository
func NewGormIdempotencyKeyRepository(db *gorm.DB) *GormIdempotencyKeyRepository {
	return &GormIdempotencyKeyRepository{db: db}
}

// Find returns the mapping for the key, or nil
func (r *GormIdempotencyKeyRepository) Find(ctx context.Context, tenantID uuid.UUID, key string) (*accounting.IdempotencyKey, error) {
	var model models.IdempotencyKeyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save records a new mapping. The insert skips on conflict instead of failing so
// a postgres transaction is not aborted; a skipped insert means the key is taken.
func (r *GormIdempotencyKeyRepository) Save(ctx context.Context, key *accounting.IdempotencyKey) error {
	model := &models.IdempotencyKeyModel{
		TenantID:  key.TenantID,
		Key:       key.Key,
		VoucherID: key.VoucherID,
		Operation: key.Operation,
		CreatedAt: key.CreatedAt,
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists.WithMessage(fmt.Sprintf("Idempotency key %q is already recorded", key.Key))
	}
	return nil
}

// Ensure GormIdempotencyKeyRepository implements IdempotencyKeyRepository
var _ accounting.IdempotencyKeyRepository = (*GormIdempotencyKeyRepository)(nil)
