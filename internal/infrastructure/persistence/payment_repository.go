package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/settlement"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment with its lines
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*settlement.Payment, error) {
	return r.find(r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByVoucherIDForUpdate locks the payment row recorded by a voucher
func (r *GormPaymentRepository) FindByVoucherIDForUpdate(ctx context.Context, tenantID, voucherID uuid.UUID) (*settlement.Payment, error) {
	return r.find(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND voucher_id = ?", tenantID, voucherID))
}

func (r *GormPaymentRepository) find(query *gorm.DB) (*settlement.Payment, error) {
	var model models.PaymentModel
	err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPostedLinesByInvoice returns the lines of POSTED payments applied to an invoice
func (r *GormPaymentRepository) FindPostedLinesByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]settlement.PaymentLine, error) {
	var rows []models.PaymentLineModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN payments ON payments.id = payment_lines.payment_id").
		Where("payment_lines.tenant_id = ? AND payment_lines.invoice_id = ? AND payments.status = ?",
			tenantID, invoiceID, settlement.PaymentStatusPosted).
		Order("payment_lines.payment_id ASC, payment_lines.line_no ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]settlement.PaymentLine, len(rows))
	for i := range rows {
		lines[i] = rows[i].ToDomain()
	}
	return lines, nil
}

// Save creates or updates the payment and replaces its lines
func (r *GormPaymentRepository) Save(ctx context.Context, payment *settlement.Payment) error {
	model := &models.PaymentModel{}
	model.FromDomain(payment)
	lines := model.Lines
	model.Lines = nil

	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(model).Error; err != nil {
		return err
	}
	if err := db.Where("tenant_id = ? AND payment_id = ?", payment.TenantID, payment.ID).
		Delete(&models.PaymentLineModel{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return db.Create(&lines).Error
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ settlement.PaymentRepository = (*GormPaymentRepository)(nil)
