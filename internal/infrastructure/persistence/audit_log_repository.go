package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository appends audit rows; rows are never updated or deleted
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts the entries in order
func (r *GormAuditLogRepository) Append(ctx context.Context, entries ...*accounting.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.AuditLogModel, 0, len(entries))
	for _, e := range entries {
		row, err := models.AuditLogModelFromDomain(e)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// Ensure GormAuditLogRepository implements AuditLogRepository
var _ accounting.AuditLogRepository = (*GormAuditLogRepository)(nil)
