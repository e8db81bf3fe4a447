package settlement

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository defines the persistence needed for outstanding tracking.
// Find methods return nil, nil when nothing matches.
type InvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByIDsForUpdate locks the invoices in ascending id order; missing ids are omitted
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Invoice, error)

	// FindOpenByParty returns POSTED and PARTIALLY_PAID invoices of a counterparty ledger
	FindOpenByParty(ctx context.Context, tenantID, partyLedgerID uuid.UUID) ([]*Invoice, error)

	Save(ctx context.Context, invoice *Invoice) error
}

// PaymentRepository defines the persistence for payments and their lines
type PaymentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindByVoucherIDForUpdate locks the payment row recorded by a voucher
	FindByVoucherIDForUpdate(ctx context.Context, tenantID, voucherID uuid.UUID) (*Payment, error)

	// FindPostedLinesByInvoice returns the lines of POSTED payments applied to an invoice
	FindPostedLinesByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentLine, error)

	// Save creates or updates the payment and its lines
	Save(ctx context.Context, payment *Payment) error
}
