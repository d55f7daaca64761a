package storage_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailroom/backend/internal/models"
	"mailroom/backend/internal/storage"
)

func newMockDB(t *testing.T) (*storage.Service, sqlmock.Sqlmock) {
	t.Helper()

	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return storage.NewStorageService(gdb, nil), smock
}

func TestResolveApproval_OnlyOnce(t *testing.T) {
	svc, smock := newMockDB(t)
	now := time.Now()

	// First resolve hits the pending row.
	smock.ExpectExec(`UPDATE "approval_events" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err := svc.ResolveApproval(10, 2, models.DecisionApproved, "ok", now)
	require.NoError(t, err)

	// Second resolve matches nothing: the decision guard in the WHERE
	// clause excludes the already-decided row.
	smock.ExpectExec(`UPDATE "approval_events" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = svc.ResolveApproval(10, 3, models.DecisionRejected, "too late", now)
	assert.ErrorIs(t, err, storage.ErrAlreadyResolved)

	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestResolveApproval_GuardInWhereClause(t *testing.T) {
	svc, smock := newMockDB(t)
	now := time.Now()

	// The pending check must be part of the UPDATE itself, not a prior
	// SELECT, so concurrent resolvers cannot both pass it.
	smock.ExpectExec(`UPDATE "approval_events" SET .* WHERE id = \$\d+ AND decision = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ResolveApproval(7, 2, models.DecisionApproved, "", now)
	require.NoError(t, err)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestCreateApproval_DefaultsToPending(t *testing.T) {
	svc, smock := newMockDB(t)

	smock.ExpectQuery(`INSERT INTO "approval_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	ev := &models.ApprovalEvent{MessageID: 1, Stage: models.StageReview, ActorID: 4}
	err := svc.CreateApproval(ev)

	require.NoError(t, err)
	assert.Equal(t, models.DecisionPending, ev.Decision)
	assert.NoError(t, smock.ExpectationsWereMet())
}
