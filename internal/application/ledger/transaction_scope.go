package ledger

import (
	"context"

	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/settlement"
	"github.com/erp/ledger/internal/domain/shared"
)

// TransactionScope provides transactional access to ledger repositories.
// Everything done through the repositories handed to fn commits or rolls back
// as one unit, including row locks taken with the ForUpdate finders.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all ledger repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Lock order inside a transaction is fixed to avoid deadlocks between postings:
//  1. voucher row, then its payment row
//  2. invoice rows, ascending id
//  3. balance rows, ascending ledger id, period row before the all-time row
//  4. sequence row
type TransactionalRepositories interface {
	// VoucherRepo returns the voucher repository scoped to the current transaction
	VoucherRepo() accounting.VoucherRepository
	// BalanceRepo returns the balance cache scoped to the current transaction
	BalanceRepo() accounting.LedgerBalanceRepository
	// SequenceRepo returns the sequence generator scoped to the current transaction
	SequenceRepo() accounting.SequenceRepository
	// IdempotencyRepo returns the idempotency key table scoped to the current transaction
	IdempotencyRepo() accounting.IdempotencyKeyRepository
	// LedgerRepo returns the chart of accounts scoped to the current transaction
	LedgerRepo() accounting.LedgerAccountRepository
	// PeriodRepo returns the accounting period repository scoped to the current transaction
	PeriodRepo() accounting.AccountingPeriodRepository
	// AuditRepo returns the audit log scoped to the current transaction
	AuditRepo() accounting.AuditLogRepository
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() settlement.InvoiceRepository
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() settlement.PaymentRepository
	// Events returns the outbox publisher bound to the current transaction
	Events() shared.EventPublisher
}
