package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
)

func newSchemaRepo(t *testing.T) (*SchemaRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewSchemaRepository(db), mock, func() { db.Close() }
}

func strPtr(s string) *string { return &s }

func TestSchemaRepository_InsertSchema(t *testing.T) {
	repo, mock, closeDB := newSchemaRepo(t)
	defer closeDB()

	s := &schema.Schema{
		ID:       "sch-1",
		Name:     "orders",
		TenantID: "t1",
		Fields: []schema.Field{
			{ID: "fld-1", FieldName: "amount", FieldType: schema.FieldTypeNumber, Label: "Amount", Required: true},
			{ID: "fld-2", FieldName: "status", FieldType: schema.FieldTypeEnum, Label: "Status", Options: []string{"open", "closed"}},
		},
	}

	mock.ExpectExec("INSERT INTO mf_schema").
		WithArgs("sch-1", "orders", nil, "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mf_field").
		WithArgs("fld-1", "sch-1", "amount", "NUMBER", "Amount", true,
			nil, nil, nil, nil, nil, nil, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mf_field").
		WithArgs("fld-2", "sch-1", "status", "ENUM", "Status", false,
			nil, nil, `["open","closed"]`, nil, nil, nil, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.InsertSchema(context.Background(), nil, s))
	assert.Equal(t, "sch-1", s.Fields[0].SchemaID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaRepository_GetSchemaByName(t *testing.T) {
	repo, mock, closeDB := newSchemaRepo(t)
	defer closeDB()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM mf_schema WHERE name = \\? AND tenant_id = \\?").
		WithArgs("orders", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "tenant_id", "created_at", "updated_at"}).
			AddRow("sch-1", "orders", "order headers", "t1", now, now))
	mock.ExpectQuery("SELECT (.+) FROM mf_field WHERE schema_id = \\?").
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "schema_id", "field_name", "field_type", "label", "required",
			"default_value", "validation_rule", "options", "description",
			"related_schema_name", "related_field_name"}).
			AddRow("fld-1", "sch-1", "amount", "NUMBER", "Amount", true, nil, nil, nil, nil, nil, nil).
			AddRow("fld-2", "sch-1", "status", "ENUM", "Status", false, "open", nil, `["open","closed"]`, nil, nil, nil))

	s, err := repo.GetSchemaByName(context.Background(), "orders", "t1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "sch-1", s.ID)
	require.NotNil(t, s.Description)
	assert.Equal(t, "order headers", *s.Description)
	require.Len(t, s.Fields, 2)
	assert.Equal(t, schema.FieldTypeNumber, s.Fields[0].FieldType)
	assert.Equal(t, []string{"open", "closed"}, s.Fields[1].Options)
	require.NotNil(t, s.Fields[1].DefaultValue)
	assert.Equal(t, "open", *s.Fields[1].DefaultValue)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaRepository_GetSchemaByName_NotFound(t *testing.T) {
	repo, mock, closeDB := newSchemaRepo(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM mf_schema WHERE name = \\? AND tenant_id = \\?").
		WithArgs("ghost", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "tenant_id", "created_at", "updated_at"}))

	s, err := repo.GetSchemaByName(context.Background(), "ghost", "t1")
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaRepository_SchemaExists(t *testing.T) {
	repo, mock, closeDB := newSchemaRepo(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("orders", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.SchemaExists(context.Background(), "orders", "t1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaRepository_UpdateSchema(t *testing.T) {
	repo, mock, closeDB := newSchemaRepo(t)
	defer closeDB()

	mock.ExpectExec("UPDATE mf_schema SET updated_at = NOW\\(\\), description = \\? WHERE id = \\?").
		WithArgs("new text", "sch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSchema(context.Background(), "sch-1", schema.SchemaPatch{Description: strPtr("new text")})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaRepository_DeleteSchema_CascadesFields(t *testing.T) {
	repo, mock, closeDB := newSchemaRepo(t)
	defer closeDB()

	// Field rows go first so the cascade never strands orphans.
	mock.ExpectExec("DELETE FROM mf_field WHERE schema_id = \\?").
		WithArgs("sch-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM mf_schema WHERE id = \\?").
		WithArgs("sch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteSchema(context.Background(), nil, "sch-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaRepository_NextSortOrder(t *testing.T) {
	repo, mock, closeDB := newSchemaRepo(t)
	defer closeDB()

	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(sort_order\\), -1\\) \\+ 1 FROM mf_field").
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))

	next, err := repo.NextSortOrder(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, 4, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}
