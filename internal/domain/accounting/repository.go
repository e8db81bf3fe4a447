package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherRepository defines the interface for voucher persistence.
// Find methods return nil, nil when nothing matches.
type VoucherRepository interface {
	// FindByID loads the voucher with its lines
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Voucher, error)

	// FindByIDForUpdate loads the voucher and holds an exclusive row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Voucher, error)

	// FindByNumber finds a voucher by its number within a voucher type
	FindByNumber(ctx context.Context, tenantID uuid.UUID, voucherType VoucherType, number string) (*Voucher, error)

	// Save creates or updates the voucher header
	Save(ctx context.Context, voucher *Voucher) error

	// SaveLines replaces the voucher's lines
	SaveLines(ctx context.Context, voucher *Voucher) error
}

// LedgerBalanceRepository is the balance cache
type LedgerBalanceRepository interface {
	// ApplyLine locks the (tenant, ledger, period) row, creating it at zero if absent,
	// adds amount to the kind's accumulator and returns the new state
	ApplyLine(ctx context.Context, tenantID, ledgerID uuid.UUID, periodID *uuid.UUID,
		kind EntryKind, amount decimal.Decimal, sourceVoucherID uuid.UUID) (*LedgerBalance, error)

	// Get reads a row without locking; nil when the row was never created
	Get(ctx context.Context, tenantID, ledgerID uuid.UUID, periodID *uuid.UUID) (*LedgerBalance, error)

	// ListByPeriod reads every row of a period (all time when periodID is nil)
	ListByPeriod(ctx context.Context, tenantID uuid.UUID, periodID *uuid.UUID) ([]*LedgerBalance, error)
}

// SequenceRepository is the sequence generator
type SequenceRepository interface {
	// Next locks the counter row for (tenant, key, period bucket), creating it at 0
	// if absent, increments it and returns the formatted number
	Next(ctx context.Context, tenantID uuid.UUID, def SequenceDefinition, documentDate time.Time) (string, error)
}

// IdempotencyKeyRepository stores the permanent key to voucher mapping
type IdempotencyKeyRepository interface {
	// Find returns the mapping for the key, or nil
	Find(ctx context.Context, tenantID uuid.UUID, key string) (*IdempotencyKey, error)

	// Save records a new mapping; fails with shared.ErrAlreadyExists if the key is taken
	Save(ctx context.Context, key *IdempotencyKey) error
}

// LedgerAccountRepository defines the interface for chart-of-accounts persistence
type LedgerAccountRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*LedgerAccount, error)

	// FindByIDs returns the accounts that exist among ids; missing ids are omitted
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*LedgerAccount, error)

	Save(ctx context.Context, account *LedgerAccount) error
}

// AccountingPeriodRepository defines the interface for period persistence
type AccountingPeriodRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*AccountingPeriod, error)

	// FindByDate returns the period containing the date, or nil
	FindByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*AccountingPeriod, error)

	Save(ctx context.Context, period *AccountingPeriod) error
}

// AuditLogRepository is the append-only audit sink
type AuditLogRepository interface {
	Append(ctx context.Context, entries ...*AuditEntry) error
}
