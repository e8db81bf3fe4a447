package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerAccountRepository implements LedgerAccountRepository using GORM
type GormLedgerAccountRepository struct {
	db *gorm.DB
}

// NewGormLedgerAccountRepository creates a new GormLedgerAccountRepository
func NewGormLedgerAccountRepository(db *gorm.DB) *GormLedgerAccountRepository {
	return &GormLedgerAccountRepository{db: db}
}

// FindByID finds a ledger by its ID within a tenant
func (r *GormLedgerAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*accounting.LedgerAccount, error) {
	var model models.LedgerAccountModel
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

// FindByIDs returns the accounts that exist among ids
func (r *GormLedgerAccountRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*accounting.LedgerAccount, error) {
	if len(ids) == 0 {
		return []*accounting.LedgerAccount{}, nil
	}
	var rows []models.LedgerAccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	accounts := make([]*accounting.LedgerAccount, len(rows))
	for i := range rows {
		accounts[i] = rows[i].ToDomain()
	}
	return accounts, nil
}

// Save creates or updates a ledger
func (r *GormLedgerAccountRepository) Save(ctx context.Context, account *accounting.LedgerAccount) error {
	model := &models.LedgerAccountModel{}
	model.FromDomain(account)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormLedgerAccountRepository implements LedgerAccountRepository
var _ accounting.LedgerAccountRepository = (*GormLedgerAccountRepository)(nil)
