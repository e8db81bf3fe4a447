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

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID within a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*settlement.Invoice, error) {
	var model models.InvoiceModel
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

// FindByIDsForUpdate locks the invoices in ascending id order
func (r *GormInvoiceRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*settlement.Invoice, error) {
	if len(ids) == 0 {
		return []*settlement.Invoice{}, nil
	}
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// FindOpenByParty returns the invoices of a counterparty that still carry an outstanding
func (r *GormInvoiceRepository) FindOpenByParty(ctx context.Context, tenantID, partyLedgerID uuid.UUID) ([]*settlement.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND party_ledger_id = ? AND status IN ?", tenantID, partyLedgerID,
			[]settlement.InvoiceStatus{settlement.InvoiceStatusPosted, settlement.InvoiceStatusPartiallyPaid}).
		Order("invoice_date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *settlement.Invoice) error {
	model := &models.InvoiceModel{}
	model.FromDomain(invoice)
	return r.db.WithContext(ctx).Save(model).Error
}

func toInvoices(rows []models.InvoiceModel) []*settlement.Invoice {
	invoices := make([]*settlement.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ settlement.InvoiceRepository = (*GormInvoiceRepository)(nil)
