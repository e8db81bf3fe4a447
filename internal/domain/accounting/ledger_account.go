package accounting

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountNature is the natural balance side of a ledger in the chart of accounts
type AccountNature string

const (
	NatureAsset     AccountNature = "ASSET"
	NatureLiability AccountNature = "LIABILITY"
	NatureEquity    AccountNature = "EQUITY"
	NatureIncome    AccountNature = "INCOME"
	NatureExpense   AccountNature = "EXPENSE"
)

// IsValid checks if the nature is known
func (n AccountNature) IsValid() bool {
	switch n {
	case NatureAsset, NatureLiability, NatureEquity, NatureIncome, NatureExpense:
		return true
	}
	return false
}

// IsDebitNatured returns true for accounts whose balance is normally on the DR side
func (n AccountNature) IsDebitNatured() bool {
	return n == NatureAsset || n == NatureExpense
}

// LedgerAccount is an account in the chart of accounts
type LedgerAccount struct {
	shared.TenantAggregateRoot
	Code     string
	Name     string
	Nature   AccountNature
	Active   bool
	ParentID *uuid.UUID
}

// NewLedgerAccount creates an active ledger account
func NewLedgerAccount(tenantID uuid.UUID, code, name string, nature AccountNature) (*LedgerAccount, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_LEDGER_CODE", "Ledger code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_LEDGER_CODE", "Ledger code cannot exceed 50 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_LEDGER_NAME", "Ledger name cannot be empty")
	}
	if !nature.IsValid() {
		return nil, shared.NewDomainError("INVALID_LEDGER_NATURE", "Ledger nature is not valid")
	}
	return &LedgerAccount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Nature:              nature,
		Active:              true,
	}, nil
}

// ResourceType implements Resource
func (a *LedgerAccount) ResourceType() string {
	return "ledger"
}

// IsActive implements Resource
func (a *LedgerAccount) IsActive() bool {
	return a.Active
}

// Deactivate stops the ledger from being used by new postings
func (a *LedgerAccount) Deactivate() {
	if a.Active {
		a.Active = false
		a.IncrementVersion()
	}
}

// Activate re-enables the ledger
func (a *LedgerAccount) Activate() {
	if !a.Active {
		a.Active = true
		a.IncrementVersion()
	}
}

var _ Resource = (*LedgerAccount)(nil)
