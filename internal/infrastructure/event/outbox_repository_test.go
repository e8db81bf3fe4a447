package event

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEvent struct {
	shared.BaseDomainEvent
	Note string `json:"note"`
}

func newTestEvent(eventType string, tenantID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Voucher", uuid.New(), tenantID),
		Note:            "posted",
	}
}

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := persistence.NewSQLiteDatabase(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func saveEntry(t *testing.T, repo *GormOutboxRepository, createdAt time.Time) *shared.OutboxEntry {
	t.Helper()
	event := newTestEvent("ledger.test", uuid.New())
	entry := shared.NewOutboxEntry(event.TenantID(), event, []byte(`{"note":"posted"}`))
	entry.CreatedAt = createdAt
	require.NoError(t, repo.Save(context.Background(), entry))
	return entry
}

func TestGormOutboxRepository_SaveAndFindPending(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxTestDB(t))
	ctx := context.Background()
	now := time.Now()

	second := saveEntry(t, repo, now)
	first := saveEntry(t, repo, now.Add(-time.Minute))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
	assert.Equal(t, `{"note":"posted"}`, string(pending[0].Payload))

	limited, err := repo.FindPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormOutboxRepository_Save_Empty(t *testing.T) {
	db, mock := setupMockDB(t)

	require.NoError(t, NewGormOutboxRepository(db).Save(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_MarkProcessing(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxTestDB(t))
	ctx := context.Background()

	pending := saveEntry(t, repo, time.Now())
	sent := saveEntry(t, repo, time.Now())
	sent.MarkSent()
	require.NoError(t, repo.Update(ctx, sent))

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID, sent.ID})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, pending.ID, claimed[0].ID)
	assert.Equal(t, shared.OutboxStatusProcessing, claimed[0].Status)

	// A second claim finds nothing left to take
	again, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID})
	require.NoError(t, err)
	assert.Empty(t, again)

	stored, err := repo.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusProcessing, stored.Status)
}

func TestGormOutboxRepository_MarkProcessing_SkipsLockedRows(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "outbox_events" WHERE id IN \(\$1\) AND status IN \(\$2,\$3\) FOR UPDATE SKIP LOCKED`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	claimed, err := NewGormOutboxRepository(db).MarkProcessing(context.Background(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_MarkProcessing_EmptyIDs(t *testing.T) {
	db, mock := setupMockDB(t)

	claimed, err := NewGormOutboxRepository(db).MarkProcessing(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_FindRetryable(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxTestDB(t))
	ctx := context.Background()
	now := time.Now()

	due := saveEntry(t, repo, now)
	due.MarkFailed("sink down")
	past := now.Add(-time.Minute)
	due.NextRetryAt = &past
	require.NoError(t, repo.Update(ctx, due))

	later := saveEntry(t, repo, now)
	later.MarkFailed("sink down")
	future := now.Add(time.Hour)
	later.NextRetryAt = &future
	require.NoError(t, repo.Update(ctx, later))

	retryable, err := repo.FindRetryable(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Equal(t, due.ID, retryable[0].ID)
	assert.Equal(t, 1, retryable[0].RetryCount)
	assert.Equal(t, "sink down", retryable[0].LastError)
}

func TestGormOutboxRepository_DeadLettersAndCounts(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxTestDB(t))
	ctx := context.Background()

	saveEntry(t, repo, time.Now())
	dead := saveEntry(t, repo, time.Now())
	dead.MaxRetries = 1
	dead.MarkFailed("permanent")
	require.NoError(t, repo.Update(ctx, dead))

	entries, total, err := repo.FindDead(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, dead.ID, entries[0].ID)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusDead])
}

func TestGormOutboxRepository_DeleteOlderThan(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxTestDB(t))
	ctx := context.Background()

	old := saveEntry(t, repo, time.Now())
	old.MarkSent()
	processed := time.Now().Add(-48 * time.Hour)
	old.ProcessedAt = &processed
	require.NoError(t, repo.Update(ctx, old))

	recent := saveEntry(t, repo, time.Now())
	recent.MarkSent()
	require.NoError(t, repo.Update(ctx, recent))

	pending := saveEntry(t, repo, time.Now())

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gone, err := repo.FindByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := repo.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
