package models

import (
	"encoding/json"
	"time"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherModel is the persistence model for the Voucher aggregate root header
type VoucherModel struct {
	TenantAggregateModel
	VoucherType    accounting.VoucherType   `gorm:"type:varchar(20);not null;index"`
	PeriodID       *uuid.UUID               `gorm:"type:uuid;index"`
	Number         string                   `gorm:"type:varchar(50);not null"`
	VoucherDate    time.Time                `gorm:"not null"`
	Currency       string                   `gorm:"type:varchar(3);not null"`
	Narration      string                   `gorm:"type:varchar(500)"`
	Status         accounting.VoucherStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ReversalOfID   *uuid.UUID               `gorm:"type:uuid;index"`
	ReversedByID   *uuid.UUID               `gorm:"type:uuid"`
	PostedAt       *time.Time
	PostedBy       *uuid.UUID `gorm:"type:uuid"`
	ReversedAt     *time.Time
	ReversedBy     *uuid.UUID `gorm:"type:uuid"`
	ReversalReason string     `gorm:"type:varchar(255)"`
	CancelledAt    *time.Time
}

// TableName returns the table name for GORM
func (VoucherModel) TableName() string {
	return "vouchers"
}

// ToDomain converts the persistence model to a domain Voucher; lines are attached by the caller
func (m *VoucherModel) ToDomain(lines []VoucherLineModel) *accounting.Voucher {
	v := &accounting.Voucher{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		VoucherType:         m.VoucherType,
		PeriodID:            m.PeriodID,
		Number:              m.Number,
		VoucherDate:         m.VoucherDate,
		Currency:            valueobject.Currency(m.Currency),
		Narration:           m.Narration,
		Status:              m.Status,
		ReversalOfID:        m.ReversalOfID,
		ReversedByID:        m.ReversedByID,
		PostedAt:            m.PostedAt,
		PostedBy:            m.PostedBy,
		ReversedAt:          m.ReversedAt,
		ReversedBy:          m.ReversedBy,
		ReversalReason:      m.ReversalReason,
		CancelledAt:         m.CancelledAt,
		Lines:               make([]accounting.VoucherLine, 0, len(lines)),
	}
	for i := range lines {
		v.Lines = append(v.Lines, lines[i].ToDomain())
	}
	return v
}

// FromDomain populates the persistence model from a domain Voucher
func (m *VoucherModel) FromDomain(v *accounting.Voucher) {
	m.FromDomainTenantAggregateRoot(v.TenantAggregateRoot)
	m.VoucherType = v.VoucherType
	m.PeriodID = v.PeriodID
	m.Number = v.Number
	m.VoucherDate = v.VoucherDate
	m.Currency = string(v.Currency)
	m.Narration = v.Narration
	m.Status = v.Status
	m.ReversalOfID = v.ReversalOfID
	m.ReversedByID = v.ReversedByID
	m.PostedAt = v.PostedAt
	m.PostedBy = v.PostedBy
	m.ReversedAt = v.ReversedAt
	m.ReversedBy = v.ReversedBy
	m.ReversalReason = v.ReversalReason
	m.CancelledAt = v.CancelledAt
}

// VoucherLineModel is the persistence model for one leg of a voucher
type VoucherLineModel struct {
	ID               uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	VoucherID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	LineNo           int                  `gorm:"not null"`
	LedgerID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	EntryKind        accounting.EntryKind `gorm:"type:varchar(2);not null"`
	Amount           decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	CostCenterID     *uuid.UUID           `gorm:"type:uuid"`
	AgainstVoucherID *uuid.UUID           `gorm:"type:uuid;index"`
	Narration        string               `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (VoucherLineModel) TableName() string {
	return "voucher_lines"
}

// ToDomain converts the persistence model to a domain VoucherLine
func (m *VoucherLineModel) ToDomain() accounting.VoucherLine {
	return accounting.VoucherLine{
		ID:               m.ID,
		VoucherID:        m.VoucherID,
		LineNo:           m.LineNo,
		LedgerID:         m.LedgerID,
		EntryKind:        m.EntryKind,
		Amount:           m.Amount,
		CostCenterID:     m.CostCenterID,
		AgainstVoucherID: m.AgainstVoucherID,
		Narration:        m.Narration,
	}
}

// VoucherLineModelFromDomain creates a persistence model for a line of the voucher
func VoucherLineModelFromDomain(v *accounting.Voucher, l accounting.VoucherLine) VoucherLineModel {
	return VoucherLineModel{
		ID:               l.ID,
		TenantID:         v.TenantID,
		VoucherID:        v.ID,
		LineNo:           l.LineNo,
		LedgerID:         l.LedgerID,
		EntryKind:        l.EntryKind,
		Amount:           l.Amount,
		CostCenterID:     l.CostCenterID,
		AgainstVoucherID: l.AgainstVoucherID,
		Narration:        l.Narration,
	}
}

// LedgerBalanceModel is a balance cache row
type LedgerBalanceModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_balance_key,priority:1"`
	LedgerID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_balance_key,priority:2"`
	PeriodKey     string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_ledger_balance_key,priority:3"`
	PeriodID      *uuid.UUID      `gorm:"type:uuid"`
	DebitTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreditTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LastVoucherID *uuid.UUID      `gorm:"type:uuid"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerBalanceModel) TableName() string {
	return "ledger_balances"
}

// ToDomain converts the persistence model to a domain LedgerBalance
func (m *LedgerBalanceModel) ToDomain() *accounting.LedgerBalance {
	return &accounting.LedgerBalance{
		ID:            m.ID,
		TenantID:      m.TenantID,
		LedgerID:      m.LedgerID,
		PeriodID:      m.PeriodID,
		DebitTotal:    m.DebitTotal,
		CreditTotal:   m.CreditTotal,
		LastVoucherID: m.LastVoucherID,
		UpdatedAt:     m.UpdatedAt,
	}
}

// SequenceModel is one counter row of a numbered series
type SequenceModel struct {
	ID          uuid.UUID              `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_sequence_key,priority:1"`
	SequenceKey string                 `gorm:"type:varchar(100);not null;uniqueIndex:idx_sequence_key,priority:2"`
	PeriodKey   string                 `gorm:"type:varchar(10);not null;uniqueIndex:idx_sequence_key,priority:3"`
	Prefix      string                 `gorm:"type:varchar(20);not null"`
	ResetPolicy accounting.ResetPolicy `gorm:"type:varchar(10);not null"`
	LastValue   int64                  `gorm:"not null;default:0"`
	UpdatedAt   time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceModel) TableName() string {
	return "sequences"
}

// IdempotencyKeyModel maps a client key to the voucher it produced
type IdempotencyKeyModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key       string    `gorm:"column:idempotency_key;type:varchar(255);primaryKey"`
	VoucherID uuid.UUID `gorm:"type:uuid;not null;index"`
	Operation string    `gorm:"type:varchar(30);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IdempotencyKeyModel) TableName() string {
	return "idempotency_keys"
}

// ToDomain converts the persistence model to a domain IdempotencyKey
func (m *IdempotencyKeyModel) ToDomain() *accounting.IdempotencyKey {
	return &accounting.IdempotencyKey{
		TenantID:  m.TenantID,
		Key:       m.Key,
		VoucherID: m.VoucherID,
		Operation: m.Operation,
		CreatedAt: m.CreatedAt,
	}
}

// LedgerAccountModel is the persistence model for the chart of accounts
type LedgerAccountModel struct {
	TenantAggregateModel
	Code     string                   `gorm:"type:varchar(50);not null"`
	Name     string                   `gorm:"type:varchar(200);not null"`
	Nature   accounting.AccountNature `gorm:"type:varchar(20);not null"`
	Active   bool                     `gorm:"not null"`
	ParentID *uuid.UUID               `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (LedgerAccountModel) TableName() string {
	return "ledger_accounts"
}

// ToDomain converts the persistence model to a domain LedgerAccount
func (m *LedgerAccountModel) ToDomain() *accounting.LedgerAccount {
	return &accounting.LedgerAccount{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Nature:              m.Nature,
		Active:              m.Active,
		ParentID:            m.ParentID,
	}
}

// FromDomain populates the persistence model from a domain LedgerAccount
func (m *LedgerAccountModel) FromDomain(a *accounting.LedgerAccount) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.Nature = a.Nature
	m.Active = a.Active
	m.ParentID = a.ParentID
}

// AccountingPeriodModel is the persistence model for an accounting period
type AccountingPeriodModel struct {
	TenantAggregateModel
	Name      string                  `gorm:"type:varchar(50);not null"`
	StartDate time.Time               `gorm:"not null"`
	EndDate   time.Time               `gorm:"not null"`
	Status    accounting.PeriodStatus `gorm:"type:varchar(10);not null;default:'OPEN'"`
	ClosedAt  *time.Time
	ClosedBy  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (AccountingPeriodModel) TableName() string {
	return "accounting_periods"
}

// ToDomain converts the persistence model to a domain AccountingPeriod
func (m *AccountingPeriodModel) ToDomain() *accounting.AccountingPeriod {
	return &accounting.AccountingPeriod{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		Status:              m.Status,
		ClosedAt:            m.ClosedAt,
		ClosedBy:            m.ClosedBy,
	}
}

// FromDomain populates the persistence model from a domain AccountingPeriod
func (m *AccountingPeriodModel) FromDomain(p *accounting.AccountingPeriod) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Name = p.Name
	m.StartDate = p.StartDate
	m.EndDate = p.EndDate
	m.Status = p.Status
	m.ClosedAt = p.ClosedAt
	m.ClosedBy = p.ClosedBy
}

// AuditLogModel is an append-only audit row
type AuditLogModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorID    *uuid.UUID `gorm:"type:uuid"`
	Action     string     `gorm:"type:varchar(30);not null"`
	EntityType string     `gorm:"type:varchar(30);not null"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Details    string     `gorm:"type:jsonb"`
	CreatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// AuditLogModelFromDomain creates a persistence model from a domain AuditEntry
func AuditLogModelFromDomain(e *accounting.AuditEntry) (*AuditLogModel, error) {
	details := "{}"
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		details = string(raw)
	}
	m := &AuditLogModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		Action:     string(e.Action),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    details,
		CreatedAt:  e.CreatedAt,
	}
	if e.ActorID != uuid.Nil {
		actor := e.ActorID
		m.ActorID = &actor
	}
	return m, nil
}
