package settlement

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocation is an invoice-targeted amount that passed the outstanding check
type Allocation struct {
	Invoice *Invoice
	Amount  decimal.Decimal
}

// AllocationPlan is the checked settlement of one payment
type AllocationPlan struct {
	Payment     *Payment
	Amount      decimal.Decimal
	Allocations []Allocation
	// Advance is the explicit advance lines plus the unallocated remainder
	Advance decimal.Decimal
}

// PlanAllocations rounds every amount half-up to the currency precision and checks
// each invoice line against the outstanding of its (locked) invoice. Lines that
// target no invoice, and any unallocated remainder, need a counterparty.
func PlanAllocations(p *Payment, invoices map[uuid.UUID]*Invoice, places int32) (*AllocationPlan, error) {
	amount := valueobject.RoundHalfUp(p.Amount, places)
	if !amount.IsPositive() {
		return nil, accounting.ErrInvalidAmount.WithMessage("Payment amount must be greater than zero")
	}

	plan := &AllocationPlan{Payment: p, Amount: amount, Advance: decimal.Zero}
	remaining := make(map[uuid.UUID]decimal.Decimal)
	applied := decimal.Zero

	for i, line := range p.Lines {
		lineAmount := valueobject.RoundHalfUp(line.Amount, places)
		if !lineAmount.IsPositive() {
			return nil, accounting.ErrInvalidAmount.WithMessage(
				fmt.Sprintf("Payment line %d amount must be greater than zero", i+1))
		}
		applied = applied.Add(lineAmount)

		if line.IsAdvance() {
			if p.PartyLedgerID == nil {
				return nil, ErrMissingCounterparty.WithMessage(
					fmt.Sprintf("Payment line %d is an advance but the payment has no counterparty", i+1))
			}
			plan.Advance = plan.Advance.Add(lineAmount)
			continue
		}

		inv, ok := invoices[*line.InvoiceID]
		if !ok || !inv.BelongsTo(p.TenantID) {
			return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Invoice %s not found", *line.InvoiceID))
		}
		if inv.Status == InvoiceStatusDraft {
			return nil, ErrInvoiceNotPayable.WithMessage(fmt.Sprintf("Invoice %s is not posted", inv.Number))
		}
		if inv.Currency != p.Currency {
			return nil, ErrCurrencyMismatch.WithMessage(fmt.Sprintf(
				"Invoice %s is in %s, payment is in %s", inv.Number, inv.Currency, p.Currency))
		}
		left, seen := remaining[inv.ID]
		if !seen {
			left = inv.Outstanding()
		}
		if lineAmount.GreaterThan(left) {
			return nil, ErrOverpayment.WithMessage(fmt.Sprintf(
				"Applying %s to invoice %s exceeds outstanding %s", lineAmount.String(), inv.Number, left.String()))
		}
		remaining[inv.ID] = left.Sub(lineAmount)
		plan.Allocations = append(plan.Allocations, Allocation{Invoice: inv, Amount: lineAmount})
	}

	if applied.GreaterThan(amount) {
		return nil, accounting.ErrInvalidAmount.WithMessage(fmt.Sprintf(
			"Payment lines total %s exceeds payment amount %s", applied.String(), amount.String()))
	}
	if remainder := amount.Sub(applied); remainder.IsPositive() {
		if p.PartyLedgerID == nil {
			return nil, ErrMissingCounterparty.WithMessage(fmt.Sprintf(
				"Unallocated %s requires a counterparty on the payment", remainder.String()))
		}
		plan.Advance = plan.Advance.Add(remainder)
	}
	return plan, nil
}

// LedgerLines builds the voucher lines for the plan: one bank line for the full
// amount and one line per distinct counterparty ledger. A RECEIPT debits the bank
// and credits the parties; a PAYMENT does the opposite.
func (plan *AllocationPlan) LedgerLines() []accounting.VoucherLine {
	p := plan.Payment
	bankKind := accounting.Debit
	if p.Direction == DirectionPayment {
		bankKind = accounting.Credit
	}
	partyKind := bankKind.Opposite()

	order := make([]uuid.UUID, 0, len(plan.Allocations)+1)
	amounts := make(map[uuid.UUID]decimal.Decimal)
	add := func(ledgerID uuid.UUID, amount decimal.Decimal) {
		if _, ok := amounts[ledgerID]; !ok {
			order = append(order, ledgerID)
			amounts[ledgerID] = decimal.Zero
		}
		amounts[ledgerID] = amounts[ledgerID].Add(amount)
	}
	for _, a := range plan.Allocations {
		add(a.Invoice.PartyLedgerID, a.Amount)
	}
	if plan.Advance.IsPositive() && p.PartyLedgerID != nil {
		add(*p.PartyLedgerID, plan.Advance)
	}

	lines := make([]accounting.VoucherLine, 0, len(order)+1)
	lines = append(lines, accounting.NewVoucherLine(p.BankLedgerID, bankKind, plan.Amount))
	for _, ledgerID := range order {
		lines = append(lines, accounting.NewVoucherLine(ledgerID, partyKind, amounts[ledgerID]))
	}
	return lines
}

// Apply raises the received amount of every allocated invoice
func (plan *AllocationPlan) Apply() error {
	for _, a := range plan.Allocations {
		if err := a.Invoice.ApplyReceipt(a.Amount); err != nil {
			return err
		}
	}
	return nil
}

// ReceivedFromLines sums invoice-line amounts, each rounded half-up, for a from-scratch recompute
func ReceivedFromLines(lines []PaymentLine, places int32) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.IsAdvance() {
			continue
		}
		total = total.Add(valueobject.RoundHalfUp(l.Amount, places))
	}
	return total
}
