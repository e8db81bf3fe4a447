package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVoucherRepository implements VoucherRepository using GORM
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// FindByID loads the voucher with its lines
func (r *GormVoucherRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*accounting.Voucher, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByIDForUpdate loads the voucher under SELECT ... FOR UPDATE
func (r *GormVoucherRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*accounting.Voucher, error) {
	return r.find(ctx, r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByNumber finds a voucher by its number within a voucher type
func (r *GormVoucherRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, voucherType accounting.VoucherType, number string) (*accounting.Voucher, error) {
	return r.find(ctx, r.db.WithContext(ctx).
		Where("tenant_id = ? AND voucher_type = ? AND number = ?", tenantID, voucherType, number))
}

func (r *GormVoucherRepository) find(ctx context.Context, query *gorm.DB) (*accounting.Voucher, error) {
	var model models.VoucherModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var lines []models.VoucherLineModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND voucher_id = ?", model.TenantID, model.ID).
		Order("line_no ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(lines), nil
}

// Save creates or updates the voucher header
func (r *GormVoucherRepository) Save(ctx context.Context, voucher *accounting.Voucher) error {
	model := &models.VoucherModel{}
	model.FromDomain(voucher)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveLines replaces the voucher's lines
func (r *GormVoucherRepository) SaveLines(ctx context.Context, voucher *accounting.Voucher) error {
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND voucher_id = ?", voucher.TenantID, voucher.ID).
		Delete(&models.VoucherLineModel{}).Error; err != nil {
		return err
	}
	if len(voucher.Lines) == 0 {
		return nil
	}

	lines := make([]models.VoucherLineModel, len(voucher.Lines))
	for i, l := range voucher.Lines {
		lines[i] = models.VoucherLineModelFromDomain(voucher, l)
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// Ensure GormVoucherRepository implements VoucherRepository
var _ accounting.VoucherRepository = (*GormVoucherRepository)(nil)
