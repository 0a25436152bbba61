package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itangbaotop/manuflex-sub000/pkg/query"
)

func newRecordRepo(t *testing.T) (*RecordRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewRecordRepository(db), mock, func() { db.Close() }
}

func TestRecordRepository_Insert(t *testing.T) {
	repo, mock, closeDB := newRecordRepo(t)
	defer closeDB()

	wantSQL := regexp.QuoteMeta(
		"INSERT INTO `mf_data_t1_orders` (`tenant_id`, `created_at`, `updated_at`, `amount`, `status`) VALUES (?, NOW(), NOW(), ?, ?)")
	mock.ExpectExec(wantSQL).
		WithArgs("t1", 12.5, "open").
		WillReturnResult(sqlmock.NewResult(7, 1))

	data := map[string]interface{}{"amount": 12.5, "status": "open", "ignored": "x"}
	id, err := repo.Insert(context.Background(), "mf_data_t1_orders", "t1", data, []string{"amount", "status"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_FindByID(t *testing.T) {
	repo, mock, closeDB := newRecordRepo(t)
	defer closeDB()

	wantSQL := regexp.QuoteMeta(
		"SELECT * FROM `mf_data_t1_orders` WHERE `id` = ? AND `tenant_id` = ? LIMIT 1")
	mock.ExpectQuery(wantSQL).
		WithArgs(int64(7), "t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "amount"}).
			AddRow(int64(7), "t1", 12.5))

	row, err := repo.FindByID(context.Background(), "mf_data_t1_orders", "t1", 7)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(7), row["id"])
	assert.Equal(t, 12.5, row["amount"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_FindByID_WrongTenantInvisible(t *testing.T) {
	repo, mock, closeDB := newRecordRepo(t)
	defer closeDB()

	mock.ExpectQuery("SELECT \\* FROM `mf_data_t1_orders`").
		WithArgs(int64(7), "t2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "amount"}))

	row, err := repo.FindByID(context.Background(), "mf_data_t1_orders", "t2", 7)
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_List(t *testing.T) {
	repo, mock, closeDB := newRecordRepo(t)
	defer closeDB()

	filters := query.CompileFilters(map[string]string{"status": "open"})

	countSQL := regexp.QuoteMeta(
		"SELECT COUNT(*) FROM `mf_data_t1_orders` WHERE `tenant_id` = ? AND `status` = ?")
	mock.ExpectQuery(countSQL).
		WithArgs("t1", "open").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(12))

	pageSQL := regexp.QuoteMeta(
		"SELECT * FROM `mf_data_t1_orders` WHERE `tenant_id` = ? AND `status` = ? ORDER BY `created_at` DESC LIMIT 10 OFFSET 10")
	mock.ExpectQuery(pageSQL).
		WithArgs("t1", "open").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(int64(11), "open").
			AddRow(int64(12), "open"))

	rows, total, err := repo.List(context.Background(), "mf_data_t1_orders", "t1", filters, "created_at", "DESC", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(11), rows[0]["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_Update(t *testing.T) {
	repo, mock, closeDB := newRecordRepo(t)
	defer closeDB()

	wantSQL := regexp.QuoteMeta(
		"UPDATE `mf_data_t1_orders` SET `updated_at` = NOW(), `status` = ? WHERE `id` = ? AND `tenant_id` = ?")
	mock.ExpectExec(wantSQL).
		WithArgs("closed", int64(7), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Update(context.Background(), "mf_data_t1_orders", "t1", 7,
		map[string]interface{}{"status": "closed"}, []string{"status"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_Delete(t *testing.T) {
	repo, mock, closeDB := newRecordRepo(t)
	defer closeDB()

	wantSQL := regexp.QuoteMeta(
		"DELETE FROM `mf_data_t1_orders` WHERE `id` = ? AND `tenant_id` = ?")
	mock.ExpectExec(wantSQL).
		WithArgs(int64(7), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(wantSQL).
		WithArgs(int64(8), "t1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "mf_data_t1_orders", "t1", 7)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), "mf_data_t1_orders", "t1", 8)
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.NoError(t, mock.ExpectationsWereMet())
}
