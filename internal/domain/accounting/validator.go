package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Totals holds the per-side sums of a set of lines
type Totals struct {
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	DebitLines  int
	CreditLines int
}

// Difference returns Debit - Credit
func (t Totals) Difference() decimal.Decimal {
	return t.Debit.Sub(t.Credit)
}

// SumLines adds up magnitudes per entry kind without validating them
func SumLines(lines []VoucherLine) Totals {
	t := Totals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, l := range lines {
		switch l.EntryKind {
		case Debit:
			t.Debit = t.Debit.Add(l.Amount)
			t.DebitLines++
		case Credit:
			t.Credit = t.Credit.Add(l.Amount)
			t.CreditLines++
		}
	}
	return t
}

// ValidateDoubleEntry checks that lines are well-formed and balance within tolerance.
// Checks run in a fixed order: entry kind, amount, legs, balance.
func ValidateDoubleEntry(lines []VoucherLine, tolerance decimal.Decimal) (Totals, error) {
	for _, l := range lines {
		if !l.EntryKind.IsValid() {
			return Totals{}, ErrInvalidEntryKind.WithMessage(
				fmt.Sprintf("Line %d has invalid entry kind %q", l.LineNo, l.EntryKind))
		}
	}
	for _, l := range lines {
		if !l.Amount.IsPositive() {
			return Totals{}, ErrInvalidAmount.WithMessage(
				fmt.Sprintf("Line %d amount must be greater than zero, got %s", l.LineNo, l.Amount.String()))
		}
	}

	totals := SumLines(lines)
	if totals.DebitLines == 0 || totals.CreditLines == 0 {
		return totals, ErrMissingLeg.WithMessage(
			fmt.Sprintf("Voucher has %d debit and %d credit lines", totals.DebitLines, totals.CreditLines))
	}
	if totals.Difference().Abs().GreaterThan(tolerance) {
		return totals, ErrUnbalancedEntry.WithMessage(
			fmt.Sprintf("Debit %s does not balance credit %s", totals.Debit.String(), totals.Credit.String()))
	}
	return totals, nil
}
