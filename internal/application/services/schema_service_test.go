package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
	"github.com/itangbaotop/manuflex-sub000/internal/infrastructure/persistence"
	apperrors "github.com/itangbaotop/manuflex-sub000/pkg/errors"
)

func newSchemaService(t *testing.T) (*SchemaService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	catalog := persistence.NewColumnCatalog(db)
	tables := NewTableService(persistence.NewTableRepository(db, catalog), catalog)
	ss := NewSchemaService(
		persistence.NewSchemaRepository(db),
		tables,
		persistence.NewTransactionManager(db),
	)
	return ss, mock, func() { db.Close() }
}

func TestValidateFieldName(t *testing.T) {
	valid := []string{"plate", "order_total", "Year2", "a_1"}
	for _, name := range valid {
		assert.NoError(t, validateFieldName(name), name)
	}

	invalid := []string{
		"ab",              // too short
		"1plate",          // leading digit
		"order-total",     // dash
		"order total",     // space
		"plate;drop",      // punctuation
		"id",              // system column
		"tenant_id",       // system column
		"created_at",      // system column
	}
	for _, name := range invalid {
		assert.Error(t, validateFieldName(name), name)
	}
}

func TestBuildFields_DuplicateName(t *testing.T) {
	_, err := buildFields([]CreateFieldRequest{
		{FieldName: "plate", FieldType: schema.FieldTypeString},
		{FieldName: "plate", FieldType: schema.FieldTypeText},
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestBuildField_Validation(t *testing.T) {
	_, err := buildField(CreateFieldRequest{FieldName: "color", FieldType: "RAINBOW"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = buildField(CreateFieldRequest{FieldName: "status", FieldType: schema.FieldTypeEnum})
	assert.True(t, apperrors.IsValidation(err), "ENUM without options")

	f, err := buildField(CreateFieldRequest{FieldName: "order_total", FieldType: schema.FieldTypeNumber})
	require.NoError(t, err)
	assert.Equal(t, "Order Total", f.Label)
	assert.NotEmpty(t, f.ID)
}

func TestSchemaService_CreateSchema_Conflict(t *testing.T) {
	ss, mock, closeDB := newSchemaService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("cars", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := ss.CreateSchema(context.Background(), CreateSchemaRequest{
		Name:     "cars",
		TenantID: "t1",
		Fields:   []CreateFieldRequest{{FieldName: "plate", FieldType: schema.FieldTypeString}},
	})
	assert.True(t, apperrors.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaService_CreateSchema(t *testing.T) {
	ss, mock, closeDB := newSchemaService(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("cars", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	// Definition persists transactionally.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO mf_schema").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mf_field").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Then the table materializes: existence check, guarded CREATE.
	mock.ExpectQuery(catalogQuery).
		WithArgs("mf_data_t1_cars").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `mf_data_t1_cars`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	s, err := ss.CreateSchema(context.Background(), CreateSchemaRequest{
		Name:     "cars",
		TenantID: "t1",
		Fields:   []CreateFieldRequest{{FieldName: "plate", FieldType: schema.FieldTypeString, Required: true}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "t1", s.TenantID)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, s.ID, s.Fields[0].SchemaID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaService_CreateOrUpdateTable_AddsMissingColumns(t *testing.T) {
	ss, mock, closeDB := newSchemaService(t)
	defer closeDB()

	schemaID := "6f1c2ce8-95a2-4f89-9a5c-0d6a3f6f9b11"
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM mf_schema WHERE id = ?").
		WithArgs(schemaID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "tenant_id", "created_at", "updated_at"}).
			AddRow(schemaID, "cars", nil, "t1", now, now))
	mock.ExpectQuery("SELECT (.+) FROM mf_field").
		WithArgs(schemaID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "schema_id", "field_name", "field_type", "label", "required",
			"default_value", "validation_rule", "options", "description",
			"related_schema_name", "related_field_name"}).
			AddRow("fld-1", schemaID, "plate", "STRING", "Plate", true, nil, nil, nil, nil, nil, nil).
			AddRow("fld-2", schemaID, "year", "INTEGER", "Year", false, nil, nil, nil, nil, nil, nil))

	// The table exists but lost the year column; reconciliation adds it back.
	mock.ExpectQuery(catalogQuery).
		WithArgs("mf_data_t1_cars").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}).
			AddRow("id").AddRow("tenant_id").AddRow("created_at").
			AddRow("updated_at").AddRow("created_by").AddRow("dept_id").
			AddRow("plate"))
	mock.ExpectBegin()
	mock.ExpectExec("ALTER TABLE `mf_data_t1_cars` ADD COLUMN `year` BIGINT").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, ss.CreateOrUpdateTable(context.Background(), schemaID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaService_UpdateSchema_RejectsRename(t *testing.T) {
	ss, mock, closeDB := newSchemaService(t)
	defer closeDB()

	schemaID := "6f1c2ce8-95a2-4f89-9a5c-0d6a3f6f9b11"
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM mf_schema WHERE id = ?").
		WithArgs(schemaID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "tenant_id", "created_at", "updated_at"}).
			AddRow(schemaID, "cars", nil, "t1", now, now))
	mock.ExpectQuery("SELECT (.+) FROM mf_field").
		WithArgs(schemaID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "schema_id", "field_name", "field_type", "label", "required",
			"default_value", "validation_rule", "options", "description",
			"related_schema_name", "related_field_name"}))

	newName := "vehicles"
	_, err := ss.UpdateSchema(context.Background(), schemaID, schema.SchemaPatch{Name: &newName})
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
