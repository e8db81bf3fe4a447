package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The ForUpdate finders must hold row locks on postgres; sqlite silently drops the clause,
// so the generated SQL is checked against the postgres dialector.

func TestGormVoucherRepository_FindByIDForUpdate_LocksRow(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	tenantID, voucherID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "vouchers" WHERE tenant_id = \$1 AND id = \$2 .*FOR UPDATE`).
		WithArgs(tenantID, voucherID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	v, err := NewGormVoucherRepository(db.DB).FindByIDForUpdate(context.Background(), tenantID, voucherID)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormVoucherRepository_FindByID_DoesNotLock(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	tenantID, voucherID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "vouchers" WHERE tenant_id = \$1 AND id = \$2 ORDER BY "vouchers"."id" LIMIT \$3$`).
		WithArgs(tenantID, voucherID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	v, err := NewGormVoucherRepository(db.DB).FindByID(context.Background(), tenantID, voucherID)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInvoiceRepository_FindByIDsForUpdate_LocksInIDOrder(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	tenantID, a, b := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND id IN \(\$2,\$3\) ORDER BY id ASC FOR UPDATE`).
		WithArgs(tenantID, a, b).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	invoices, err := NewGormInvoiceRepository(db.DB).FindByIDsForUpdate(context.Background(), tenantID, []uuid.UUID{a, b})
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInvoiceRepository_FindByIDsForUpdate_EmptySkipsQuery(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	invoices, err := NewGormInvoiceRepository(db.DB).FindByIDsForUpdate(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPaymentRepository_FindByVoucherIDForUpdate_LocksRow(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	tenantID, voucherID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND voucher_id = \$2 .*FOR UPDATE`).
		WithArgs(tenantID, voucherID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := NewGormPaymentRepository(db.DB).FindByVoucherIDForUpdate(context.Background(), tenantID, voucherID)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}
