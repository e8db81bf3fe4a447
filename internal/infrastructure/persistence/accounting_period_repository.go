package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountingPeriodRepository implements AccountingPeriodRepository using GORM
type GormAccountingPeriodRepository struct {
	db *gorm.DB
}

// NewGormAccountingPeriodRepository creates a new GormAccountingPeriodRepository
func NewGormAccountingPeriodRepository(db *gorm.DB) *GormAccountingPeriodRepository {
	return &GormAccountingPeriodRepository{db: db}
}

// FindByID finds a period by its ID within a tenant
func (r *GormAccountingPeriodRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*accounting.AccountingPeriod, error) {
	var model models.AccountingPeriodModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDate returns the period whose range contains the date by calendar day.
// The query window is widened by a day on each side and narrowed with Contains.
func (r *GormAccountingPeriodRepository) FindByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*accounting.AccountingPeriod, error) {
	var rows []models.AccountingPeriodModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND start_date <= ? AND end_date >= ?",
			tenantID, date.AddDate(0, 0, 1), date.AddDate(0, 0, -1)).
		Order("start_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		period := rows[i].ToDomain()
		if period.Contains(date) {
			return period, nil
		}
	}
	return nil, nil
}

// Save creates or updates a period
func (r *GormAccountingPeriodRepository) Save(ctx context.Context, period *accounting.AccountingPeriod) error {
	model := &models.AccountingPeriodModel{}
	model.FromDomain(period)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormAccountingPeriodRepository implements AccountingPeriodRepository
var _ accounting.AccountingPeriodRepository = (*GormAccountingPeriodRepository)(nil)
