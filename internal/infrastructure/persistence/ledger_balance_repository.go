package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerBalanceRepository implements the balance cache using GORM.
// Rows are keyed on (tenant_id, ledger_id, period_key).
type GormLedgerBalanceRepository struct {
	db *gorm.DB
}

// NewGormLedgerBalanceRepository creates a new GormLedgerBalanceRepository
func NewGormLedgerBalanceRepository(db *gorm.DB) *GormLedgerBalanceRepository {
	return &GormLedgerBalanceRepository{db: db}
}

// ApplyLine creates the row at zero when absent, locks it and adds the amount.
// Must run inside a transaction; the lock is held until it ends.
func (r *GormLedgerBalanceRepository) ApplyLine(ctx context.Context, tenantID, ledgerID uuid.UUID, periodID *uuid.UUID,
	kind accounting.EntryKind, amount decimal.Decimal, sourceVoucherID uuid.UUID) (*accounting.LedgerBalance, error) {
	db := r.db.WithContext(ctx)
	key := models.PeriodKey(periodID)

	zero := &models.LedgerBalanceModel{
		ID:          uuid.New(),
		TenantID:    tenantID,
		LedgerID:    ledgerID,
		PeriodKey:   key,
		PeriodID:    periodID,
		DebitTotal:  decimal.Zero,
		CreditTotal: decimal.Zero,
		UpdatedAt:   time.Now(),
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(zero).Error; err != nil {
		return nil, err
	}

	var row models.LedgerBalanceModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND ledger_id = ? AND period_key = ?", tenantID, ledgerID, key).
		First(&row).Error; err != nil {
		return nil, err
	}

	balance := row.ToDomain()
	balance.Apply(kind, amount, sourceVoucherID)

	if err := db.Model(&models.LedgerBalanceModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"debit_total":     balance.DebitTotal,
			"credit_total":    balance.CreditTotal,
			"last_voucher_id": balance.LastVoucherID,
			"updated_at":      balance.UpdatedAt,
		}).Error; err != nil {
		return nil, err
	}
	return balance, nil
}

// Get reads a row without locking
func (r *GormLedgerBalanceRepository) Get(ctx context.Context, tenantID, ledgerID uuid.UUID, periodID *uuid.UUID) (*accounting.LedgerBalance, error) {
	var row models.LedgerBalanceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND ledger_id = ? AND period_key = ?", tenantID, ledgerID, models.PeriodKey(periodID)).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// ListByPeriod reads every balance row of the period without locking
func (r *GormLedgerBalanceRepository) ListByPeriod(ctx context.Context, tenantID uuid.UUID, periodID *uuid.UUID) ([]*accounting.LedgerBalance, error) {
	var rows []models.LedgerBalanceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period_key = ?", tenantID, models.PeriodKey(periodID)).
		Order("ledger_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	balances := make([]*accounting.LedgerBalance, len(rows))
	for i := range rows {
		balances[i] = rows[i].ToDomain()
	}
	return balances, nil
}

// Ensure GormLedgerBalanceRepository implements LedgerBalanceRepository
var _ accounting.LedgerBalanceRepository = (*GormLedgerBalanceRepository)(nil)
