package accounting

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind is the side of a double-entry line
type EntryKind string

const (
	Debit  EntryKind = "DR"
	Credit EntryKind = "CR"
)

// IsValid checks if the entry kind is DR or CR
func (k EntryKind) IsValid() bool {
	return k == Debit || k == Credit
}

// Opposite returns the other side
func (k EntryKind) Opposite() EntryKind {
	if k == Debit {
		return Credit
	}
	return Debit
}

// String returns the string representation
func (k EntryKind) String() string {
	return string(k)
}

// VoucherLine is one leg of a voucher
type VoucherLine struct {
	ID               uuid.UUID
	VoucherID        uuid.UUID
	LineNo           int
	LedgerID         uuid.UUID
	EntryKind        EntryKind
	Amount           decimal.Decimal
	CostCenterID     *uuid.UUID
	AgainstVoucherID *uuid.UUID
	Narration        string
}

// NewVoucherLine creates a line for a ledger; the owning voucher assigns its number
func NewVoucherLine(ledgerID uuid.UUID, kind EntryKind, amount decimal.Decimal) VoucherLine {
	return VoucherLine{
		ID:        uuid.New(),
		LedgerID:  ledgerID,
		EntryKind: kind,
		Amount:    amount,
	}
}

// DebitLine is shorthand for a DR line
func DebitLine(ledgerID uuid.UUID, amount decimal.Decimal) VoucherLine {
	return NewVoucherLine(ledgerID, Debit, amount)
}

// CreditLine is shorthand for a CR line
func CreditLine(ledgerID uuid.UUID, amount decimal.Decimal) VoucherLine {
	return NewVoucherLine(ledgerID, Credit, amount)
}

// Mirror returns a copy of the line on the opposite side with a fresh identity
func (l VoucherLine) Mirror() VoucherLine {
	m := l
	m.ID = uuid.New()
	m.VoucherID = uuid.Nil
	m.EntryKind = l.EntryKind.Opposite()
	return m
}

// Signed returns the amount as +magnitude for DR and -magnitude for CR
func (l VoucherLine) Signed() decimal.Decimal {
	if l.EntryKind == Credit {
		return l.Amount.Neg()
	}
	return l.Amount
}

// String renders the line for logs and error messages
func (l VoucherLine) String() string {
	return fmt.Sprintf("#%d %s %s %s", l.LineNo, l.EntryKind, l.LedgerID, l.Amount.String())
}

// LedgerIDs returns the distinct ledgers referenced by the lines, in first-seen order
func LedgerIDs(lines []VoucherLine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.LedgerID]; ok {
			continue
		}
		seen[l.LedgerID] = struct{}{}
		ids = append(ids, l.LedgerID)
	}
	return ids
}
