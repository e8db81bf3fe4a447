package accounting

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceLine is one ledger's totals in a trial balance
type TrialBalanceLine struct {
	LedgerID    uuid.UUID
	Code        string
	Name        string
	Nature      AccountNature
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
}

// Net returns debit minus credit
func (l TrialBalanceLine) Net() decimal.Decimal {
	return l.DebitTotal.Sub(l.CreditTotal)
}

// TrialBalance lists every ledger that carries a balance in a period.
// PeriodID is nil for the all-time trial balance.
type TrialBalance struct {
	TenantID    uuid.UUID
	PeriodID    *uuid.UUID
	Lines       []TrialBalanceLine
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	GeneratedAt time.Time
}

// NewTrialBalance assembles balance rows into a trial balance ordered by ledger code.
// Ledgers missing from accounts keep their id with an empty code and name.
func NewTrialBalance(tenantID uuid.UUID, periodID *uuid.UUID, balances []*LedgerBalance,
	accounts []*LedgerAccount, generatedAt time.Time) *TrialBalance {
	byID := make(map[uuid.UUID]*LedgerAccount, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	tb := &TrialBalance{
		TenantID:    tenantID,
		PeriodID:    periodID,
		Lines:       make([]TrialBalanceLine, 0, len(balances)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		GeneratedAt: generatedAt,
	}
	for _, b := range balances {
		line := TrialBalanceLine{
			LedgerID:    b.LedgerID,
			DebitTotal:  b.DebitTotal,
			CreditTotal: b.CreditTotal,
		}
		if a, ok := byID[b.LedgerID]; ok {
			line.Code = a.Code
			line.Name = a.Name
			line.Nature = a.Nature
		}
		tb.Lines = append(tb.Lines, line)
		tb.TotalDebit = tb.TotalDebit.Add(b.DebitTotal)
		tb.TotalCredit = tb.TotalCredit.Add(b.CreditTotal)
	}

	sort.SliceStable(tb.Lines, func(i, j int) bool {
		if tb.Lines[i].Code != tb.Lines[j].Code {
			return tb.Lines[i].Code < tb.Lines[j].Code
		}
		return tb.Lines[i].LedgerID.String() < tb.Lines[j].LedgerID.String()
	})
	return tb
}

// IsBalanced reports whether total debits equal total credits exactly
func (tb *TrialBalance) IsBalanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// LedgerIDs returns the ids of the ledgers in the trial balance
func (tb *TrialBalance) LedgerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(tb.Lines))
	for i, l := range tb.Lines {
		ids[i] = l.LedgerID
	}
	return ids
}
