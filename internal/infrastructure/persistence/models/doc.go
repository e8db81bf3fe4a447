// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; repositories convert with ToDomain/FromDomain.
//
// Structure:
//   - base.go: shared tenant aggregate columns
//   - ledger.go: vouchers, lines, balance cache, sequences, idempotency keys,
//     ledger accounts, accounting periods and the audit log
//   - settlement.go: invoices, payments and payment lines
//   - outbox.go: transactional outbox entries
package models
