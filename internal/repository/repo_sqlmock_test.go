package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"procura/backend/internal/model"
	pkgerrors "procura/backend/pkg/errors"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// ── 部门 ──

func TestDepartmentRepo_UpdateWithVersion_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDepartmentRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "departments" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	dept := &model.Department{ID: "dept-1", Code: "FIN", Name: "Finance"}
	dept.Version = 3
	err := repo.UpdateWithVersion(context.Background(), dept)

	assert.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)
	assert.Equal(t, 3, dept.Version, "冲突时不应推进版本号")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepo_UpdateWithVersion_OK(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDepartmentRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "departments" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	dept := &model.Department{ID: "dept-1", Code: "FIN", Name: "Finance"}
	dept.Version = 3
	require.NoError(t, repo.UpdateWithVersion(context.Background(), dept))
	assert.Equal(t, 4, dept.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepo_CountDescendants_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDepartmentRepo(db)

	got, err := repo.CountDescendants(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet(), "空输入不应访问数据库")
}

func TestDepartmentRepo_ReassignRoot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDepartmentRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "departments" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.ReassignRoot(context.Background(), "unit-1", "dept-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── 审批层级 ──

func TestApprovalRepo_RemapOrders_SingleStatement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApprovalRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "contact_department_approvals" SET "approval_order"=CASE approval_order WHEN $1 THEN $2 WHEN $3 THEN $4 ELSE approval_order END`,
	)).
		WithArgs(1, 2, 2, 1, "dept-1", 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.RemapOrders(context.Background(), "dept-1", map[int]int{2: 1, 1: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepo_RemapOrders_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApprovalRepo(db)

	n, err := repo.RemapOrders(context.Background(), "dept-1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepo_DeleteAboveOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApprovalRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "contact_department_approvals" WHERE department_id = $1 AND approval_order > $2`)).
		WithArgs("dept-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteAboveOrder(context.Background(), "dept-1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── 发件箱 ──

func TestOutboxRepo_Enqueue_Dedupe(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOutboxRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "notification_outbox"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ob-1"))
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT ("dedupe_key") DO NOTHING`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entry := func() *model.NotificationOutbox {
		return &model.NotificationOutbox{
			Kind:         model.NotificationKindInvitationDepartment,
			DedupeKey:    model.OutboxDedupeKey(model.NotificationKindInvitationDepartment, "dept-1", "c-1"),
			DepartmentID: "dept-1",
			Recipient:    "a@example.com",
		}
	}

	inserted, err := repo.Enqueue(context.Background(), entry())
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Enqueue(context.Background(), entry())
	require.NoError(t, err)
	assert.False(t, inserted, "重复的幂等键不应再次入队")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepo_GetByIDs_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOutboxRepo(db)

	rows, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── 事务 ──

func TestRepository_NilDB(t *testing.T) {
	r := &Repository{}
	tx, err := r.BeginTx(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, tx)
	assert.Same(t, r, r.WithTx(nil))
}

// ── 进行中交易 ──

func TestOpportunityRepo_CountOpenAsRequestor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOpportunityRepo(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "opportunities" WHERE .*account_id = \$1 AND contact_id = \$2 AND department_id = \$3.*is_delete = \$4 AND stage_id NOT IN \(\$5,\$6\)`).
		WithArgs("acc-1", "c-1", "dept-1", false, model.StageClosedWin, model.StageCanceledByRequestor).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	got, err := repo.CountOpenAsRequestor(context.Background(), "acc-1", "c-1", "dept-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpportunityRepo_CountOpenAsApprover(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOpportunityRepo(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "transaction_approvals" ` +
		regexp.QuoteMeta(`JOIN quotations q ON q.id = transaction_approvals.quotation_id JOIN opportunities o ON o.id = q.opportunity_id`) +
		` WHERE .*transaction_approvals\.user_id = \$1 AND o\.account_id = \$2 AND o\.department_id = \$3.*o\.is_delete = \$4 AND o\.stage_id NOT IN \(\$5,\$6\)`).
		WithArgs("c-1", "acc-1", "dept-1", false, model.StageClosedWin, model.StageCanceledByRequestor).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	got, err := repo.CountOpenAsApprover(context.Background(), "acc-1", "c-1", "dept-1")
	require.NoError(t, err)
	assert.Zero(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
