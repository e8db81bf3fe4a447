package persistence

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository issues gap-free document numbers from counter rows.
// The counter row stays locked until the surrounding transaction ends, so a
// rolled-back posting releases its number to the next caller.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next increments the counter for the definition's bucket and returns the formatted number
func (r *GormSequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, def accounting.SequenceDefinition, documentDate time.Time) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	db := r.db.WithContext(ctx)
	bucket := def.ResetPolicy.PeriodKey(documentDate)

	seed := &models.SequenceModel{
		ID:          uuid.New(),
		TenantID:    tenantID,
		SequenceKey: def.Key,
		PeriodKey:   bucket,
		Prefix:      def.Prefix,
		ResetPolicy: def.ResetPolicy,
		LastValue:   0,
		UpdatedAt:   time.Now(),
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return "", err
	}

	var row models.SequenceModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND sequence_key = ? AND period_key = ?", tenantID, def.Key, bucket).
		First(&row).Error; err != nil {
		return "", err
	}

	next := row.LastValue + 1
	if err := db.Model(&models.SequenceModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{"last_value": next, "updated_at": time.Now()}).Error; err != nil {
		return "", err
	}
	return def.Number(documentDate, next), nil
}

// Ensure GormSequenceRepository implements SequenceRepository
var _ accounting.SequenceRepository = (*GormSequenceRepository)(nil)
