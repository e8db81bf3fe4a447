package accounting

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerBalance is the cached running total for a ledger in one period.
// A nil PeriodID is the all-time row.
type LedgerBalance struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	LedgerID      uuid.UUID
	PeriodID      *uuid.UUID
	DebitTotal    decimal.Decimal
	CreditTotal   decimal.Decimal
	LastVoucherID *uuid.UUID
	UpdatedAt     time.Time
}

// NewLedgerBalance creates a zero balance row
func NewLedgerBalance(tenantID, ledgerID uuid.UUID, periodID *uuid.UUID) *LedgerBalance {
	return &LedgerBalance{
		ID:          uuid.New(),
		TenantID:    tenantID,
		LedgerID:    ledgerID,
		PeriodID:    periodID,
		DebitTotal:  decimal.Zero,
		CreditTotal: decimal.Zero,
		UpdatedAt:   time.Now(),
	}
}

// Apply adds the magnitude to the accumulator for kind and records the source voucher
func (b *LedgerBalance) Apply(kind EntryKind, amount decimal.Decimal, sourceVoucherID uuid.UUID) {
	if kind == Debit {
		b.DebitTotal = b.DebitTotal.Add(amount)
	} else {
		b.CreditTotal = b.CreditTotal.Add(amount)
	}
	src := sourceVoucherID
	b.LastVoucherID = &src
	b.UpdatedAt = time.Now()
}

// Net returns debit minus credit; positive means a debit-natured balance
func (b *LedgerBalance) Net() decimal.Decimal {
	return b.DebitTotal.Sub(b.CreditTotal)
}

// BalanceKey identifies one balance-cache row
type BalanceKey struct {
	LedgerID uuid.UUID
	PeriodID *uuid.UUID
}

// IsAllTime returns true for the all-time row
func (k BalanceKey) IsAllTime() bool {
	return k.PeriodID == nil
}

// BalanceApplication is one ApplyLine call a voucher line produces against one row
type BalanceApplication struct {
	Key    BalanceKey
	Kind   EntryKind
	Amount decimal.Decimal
	LineNo int
}

// BalanceApplications expands each line into an application against the voucher's
// period row (if any) and the all-time row of its ledger. The result is in lock
// order: ledger id ascending, period row before all-time row, then line order.
func BalanceApplications(v *Voucher) []BalanceApplication {
	apps := make([]BalanceApplication, 0, len(v.Lines)*2)
	for _, l := range v.Lines {
		if v.PeriodID != nil {
			period := *v.PeriodID
			apps = append(apps, BalanceApplication{
				Key:    BalanceKey{LedgerID: l.LedgerID, PeriodID: &period},
				Kind:   l.EntryKind,
				Amount: l.Amount,
				LineNo: l.LineNo,
			})
		}
		apps = append(apps, BalanceApplication{
			Key:    BalanceKey{LedgerID: l.LedgerID},
			Kind:   l.EntryKind,
			Amount: l.Amount,
			LineNo: l.LineNo,
		})
	}
	SortBalanceKeys(apps, func(a BalanceApplication) BalanceKey { return a.Key })
	return apps
}

// SortBalanceKeys orders items by ledger id, with the period row before the all-time row
func SortBalanceKeys[T any](items []T, key func(T) BalanceKey) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if c := bytes.Compare(a.LedgerID[:], b.LedgerID[:]); c != 0 {
			return c < 0
		}
		if a.IsAllTime() != b.IsAllTime() {
			return !a.IsAllTime()
		}
		if a.PeriodID != nil && b.PeriodID != nil {
			return bytes.Compare(a.PeriodID[:], b.PeriodID[:]) < 0
		}
		return false
	})
}

// SortUUIDs sorts ids ascending by their byte representation
func SortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
