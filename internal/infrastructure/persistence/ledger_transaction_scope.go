package persistence

import (
	"context"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/domain/settlement"
	"github.com/erp/ledger/internal/domain/shared"
	"gorm.io/gorm"
)

// TxEventPublisher writes domain events through a caller-supplied transaction
type TxEventPublisher interface {
	PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error
}

// GormTransactionScope implements TransactionScope using GORM transactions.
// Events published inside the scope go to the outbox in the same transaction.
type GormTransactionScope struct {
	db        *gorm.DB
	publisher TxEventPublisher
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, publisher TxEventPublisher) *GormTransactionScope {
	return &GormTransactionScope{db: db, publisher: publisher}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx, publisher: s.publisher}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx        *gorm.DB
	publisher TxEventPublisher
}

// VoucherRepo returns the voucher repository scoped to the current transaction
func (r *gormTransactionalRepositories) VoucherRepo() accounting.VoucherRepository {
	return NewGormVoucherRepository(r.tx)
}

// BalanceRepo returns the balance cache scoped to the current transaction
func (r *gormTransactionalRepositories) BalanceRepo() accounting.LedgerBalanceRepository {
	return NewGormLedgerBalanceRepository(r.tx)
}

// SequenceRepo returns the sequence generator scoped to the current transaction
func (r *gormTransactionalRepositories) SequenceRepo() accounting.SequenceRepository {
	return NewGormSequenceRepository(r.tx)
}

// IdempotencyRepo returns the idempotency key table scoped to the current transaction
func (r *gormTransactionalRepositories) IdempotencyRepo() accounting.IdempotencyKeyRepository {
	return NewGormIdempotencyKeyRepository(r.tx)
}

// LedgerRepo returns the chart of accounts scoped to the current transaction
func (r *gormTransactionalRepositories) LedgerRepo() accounting.LedgerAccountRepository {
	return NewGormLedgerAccountRepository(r.tx)
}

// PeriodRepo returns the accounting period repository scoped to the current transaction
func (r *gormTransactionalRepositories) PeriodRepo() accounting.AccountingPeriodRepository {
	return NewGormAccountingPeriodRepository(r.tx)
}

// AuditRepo returns the audit log scoped to the current transaction
func (r *gormTransactionalRepositories) AuditRepo() accounting.AuditLogRepository {
	return NewGormAuditLogRepository(r.tx)
}

// InvoiceRepo returns the invoice repository scoped to the current transaction
func (r *gormTransactionalRepositories) InvoiceRepo() settlement.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction
func (r *gormTransactionalRepositories) PaymentRepo() settlement.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Events returns the outbox publisher bound to the current transaction
func (r *gormTransactionalRepositories) Events() shared.EventPublisher {
	return &txPublisher{tx: r.tx, publisher: r.publisher}
}

// txPublisher adapts a TxEventPublisher to shared.EventPublisher for one transaction
type txPublisher struct {
	tx        *gorm.DB
	publisher TxEventPublisher
}

// Publish writes the events to the outbox inside the transaction
func (p *txPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if p.publisher == nil || len(events) == 0 {
		return nil
	}
	return p.publisher.PublishWithTx(ctx, p.tx, events...)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

// Ensure txPublisher implements EventPublisher
var _ shared.EventPublisher = (*txPublisher)(nil)
