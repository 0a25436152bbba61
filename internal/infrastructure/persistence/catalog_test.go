package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/itangbaotop/manuflex-sub000/pkg/errors"
)

const columnsQuery = `SELECT COLUMN_NAME\s+FROM INFORMATION_SCHEMA.COLUMNS`

func TestColumnCatalog_Columns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(columnsQuery).
		WithArgs("mf_data_t1_orders").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}).
			AddRow("id").AddRow("tenant_id").AddRow("amount"))

	catalog := NewColumnCatalog(db)
	cols, err := catalog.Columns(context.Background(), "mf_data_t1_orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "tenant_id", "amount"}, cols)

	// Second call must be served from cache: no further expectation is set.
	cols, err = catalog.Columns(context.Background(), "mf_data_t1_orders")
	require.NoError(t, err)
	assert.Len(t, cols, 3)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnCatalog_TableExists_Absent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(columnsQuery).
		WithArgs("mf_data_t1_ghost").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}))

	catalog := NewColumnCatalog(db)
	assert.False(t, catalog.TableExists(context.Background(), "mf_data_t1_ghost"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnCatalog_ErrorNotCached(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(columnsQuery).
		WithArgs("mf_data_t1_orders").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(columnsQuery).
		WithArgs("mf_data_t1_orders").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}).AddRow("id"))

	catalog := NewColumnCatalog(db)

	_, err = catalog.Columns(context.Background(), "mf_data_t1_orders")
	require.Error(t, err)
	assert.True(t, apperrors.IsIntrospection(err))

	// The failure must not have been cached: the retry hits the database.
	cols, err := catalog.Columns(context.Background(), "mf_data_t1_orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, cols)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnCatalog_Invalidate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"COLUMN_NAME"}).AddRow("id")
	}
	mock.ExpectQuery(columnsQuery).WithArgs("mf_data_t1_orders").WillReturnRows(rows())
	mock.ExpectQuery(columnsQuery).WithArgs("mf_data_t1_orders").WillReturnRows(rows().AddRow("status"))

	catalog := NewColumnCatalog(db)

	cols, err := catalog.Columns(context.Background(), "mf_data_t1_orders")
	require.NoError(t, err)
	assert.Len(t, cols, 1)

	catalog.Invalidate("mf_data_t1_orders")

	cols, err = catalog.Columns(context.Background(), "mf_data_t1_orders")
	require.NoError(t, err)
	assert.Len(t, cols, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}
