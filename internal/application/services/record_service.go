package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
	"github.com/itangbaotop/manuflex-sub000/internal/infrastructure/persistence"
	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
	apperrors "github.com/itangbaotop/manuflex-sub000/pkg/errors"
	"github.com/itangbaotop/manuflex-sub000/pkg/query"
	"github.com/itangbaotop/manuflex-sub000/pkg/utils"
)

// RecordService is the generic CRUD engine over materialized data tables.
// Every statement it causes carries the tenant predicate; isolation is
// enforced here and again in the repository, never only in filter building.
type RecordService struct {
	schemas *SchemaService
	records *persistence.RecordRepository
}

// NewRecordService creates a new RecordService
func NewRecordService(schemas *SchemaService, records *persistence.RecordRepository) *RecordService {
	return &RecordService{schemas: schemas, records: records}
}

// ListOptions carries pagination, sorting and filtering for List.
type ListOptions struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
	Filters map[string]string
}

// Insert validates data against the schema, applies field defaults, and
// writes one row. All-or-nothing: any validation failure means no row.
func (rs *RecordService) Insert(ctx context.Context, tenantID, schemaName string, data map[string]interface{}) (*schema.Record, error) {
	s, err := rs.schemas.GetSchemaByName(ctx, schemaName, tenantID)
	if err != nil {
		return nil, err
	}

	clean := rs.prepareData(s, data)
	applyDefaults(s, clean)
	if err := checkRequired(s, clean); err != nil {
		return nil, err
	}
	if err := evaluateValidationRules(s, clean); err != nil {
		return nil, err
	}

	table := BuildTableName(tenantID, schemaName)
	id, err := rs.records.Insert(ctx, table, tenantID, clean, fieldColumns(s))
	if err != nil {
		return nil, err
	}

	log.Printf("✨ Created record %d in %s", id, table)
	return rs.GetByID(ctx, tenantID, schemaName, id)
}

// GetByID returns one record with system columns split out of the data map.
func (rs *RecordService) GetByID(ctx context.Context, tenantID, schemaName string, id int64) (*schema.Record, error) {
	s, err := rs.schemas.GetSchemaByName(ctx, schemaName, tenantID)
	if err != nil {
		return nil, err
	}

	table := BuildTableName(tenantID, schemaName)
	row, err := rs.records.FindByID(ctx, table, tenantID, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperrors.NewNotFoundError("record", fmt.Sprintf("%s/%d", schemaName, id))
	}
	return mapRow(s, tenantID, schemaName, row), nil
}

// List returns one page of records matching the filter DSL.
func (rs *RecordService) List(ctx context.Context, tenantID, schemaName string, opts ListOptions) (*schema.Page, error) {
	s, err := rs.schemas.GetSchemaByName(ctx, schemaName, tenantID)
	if err != nil {
		return nil, err
	}

	page, size := normalizePaging(opts.Page, opts.Size)
	sortBy, sortDir, err := normalizeSort(s, opts.SortBy, opts.SortDir)
	if err != nil {
		return nil, err
	}

	compiled := query.CompileFilters(opts.Filters)
	for _, field := range query.FilterFields(compiled) {
		if !isQueryableColumn(s, field) {
			return nil, apperrors.NewValidationError("filters",
				fmt.Sprintf("unknown filter field '%s'", field))
		}
	}

	table := BuildTableName(tenantID, schemaName)
	rows, total, err := rs.records.List(ctx, table, tenantID, compiled, sortBy, sortDir, page, size)
	if err != nil {
		return nil, err
	}

	content := make([]schema.Record, 0, len(rows))
	for _, row := range rows {
		content = append(content, *mapRow(s, tenantID, schemaName, row))
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &schema.Page{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          totalPages == 0 || page >= totalPages-1,
	}, nil
}

// Update applies a partial patch to one record. Keys that are not schema
// fields are skipped with a log line and never reach the database. Returns
// the re-read record.
func (rs *RecordService) Update(ctx context.Context, tenantID, schemaName string, id int64, patch map[string]interface{}) (*schema.Record, error) {
	s, err := rs.schemas.GetSchemaByName(ctx, schemaName, tenantID)
	if err != nil {
		return nil, err
	}

	existing, err := rs.GetByID(ctx, tenantID, schemaName, id)
	if err != nil {
		return nil, err
	}

	clean := rs.prepareData(s, patch)
	if len(clean) == 0 {
		return existing, nil
	}
	if err := checkRequiredPatch(s, clean); err != nil {
		return nil, err
	}

	// Validation rules see the post-patch state of the record.
	merged := make(map[string]interface{}, len(existing.Data)+len(clean))
	for k, v := range existing.Data {
		merged[k] = v
	}
	for k, v := range clean {
		merged[k] = v
	}
	if err := evaluateValidationRules(s, merged); err != nil {
		return nil, err
	}

	table := BuildTableName(tenantID, schemaName)
	if _, err := rs.records.Update(ctx, table, tenantID, id, clean, fieldColumns(s)); err != nil {
		return nil, err
	}
	return rs.GetByID(ctx, tenantID, schemaName, id)
}

// Delete hard-deletes one record of the tenant.
func (rs *RecordService) Delete(ctx context.Context, tenantID, schemaName string, id int64) error {
	if _, err := rs.schemas.GetSchemaByName(ctx, schemaName, tenantID); err != nil {
		return err
	}

	table := BuildTableName(tenantID, schemaName)
	deleted, err := rs.records.Delete(ctx, table, tenantID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFoundError("record", fmt.Sprintf("%s/%d", schemaName, id))
	}
	return nil
}

// prepareData drops keys that are not schema fields. System columns are
// server-managed, so they are dropped too.
func (rs *RecordService) prepareData(s *schema.Schema, data map[string]interface{}) map[string]interface{} {
	clean := make(map[string]interface{}, len(data))
	for key, value := range data {
		if s.FieldByName(key) == nil {
			log.Printf("⚠️ Skipping unknown field '%s' for schema %s", key, s.Name)
			continue
		}
		clean[key] = value
	}
	return clean
}

// applyDefaults fills absent fields from their declared defaults, coerced to
// the field's abstract type.
func applyDefaults(s *schema.Schema, data map[string]interface{}) {
	for _, f := range s.Fields {
		if f.DefaultValue == nil {
			continue
		}
		if _, present := data[f.FieldName]; present {
			continue
		}
		data[f.FieldName] = coerceDefault(f.FieldType, *f.DefaultValue)
	}
}

func coerceDefault(t schema.FieldType, raw string) interface{} {
	switch t {
	case schema.FieldTypeInteger, schema.FieldTypeReference:
		if n, ok := utils.ToInt64(raw); ok {
			return n
		}
	case schema.FieldTypeNumber:
		if n, ok := utils.ToFloat64(raw); ok {
			return n
		}
	case schema.FieldTypeBoolean:
		return utils.ToBool(raw)
	}
	return raw
}

func checkRequired(s *schema.Schema, data map[string]interface{}) error {
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		v, present := data[f.FieldName]
		if !present || v == nil {
			return apperrors.NewValidationError(f.FieldName,
				fmt.Sprintf("field '%s' is required", f.FieldName))
		}
		if str, ok := v.(string); ok && str == "" {
			return apperrors.NewValidationError(f.FieldName,
				fmt.Sprintf("field '%s' is required", f.FieldName))
		}
	}
	return nil
}

// checkRequiredPatch rejects a patch that sets a required field to nil or the
// empty string. Absent keys are fine; a patch only touches what it names.
func checkRequiredPatch(s *schema.Schema, patch map[string]interface{}) error {
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		v, present := patch[f.FieldName]
		if !present {
			continue
		}
		if v == nil {
			return apperrors.NewValidationError(f.FieldName,
				fmt.Sprintf("field '%s' is required", f.FieldName))
		}
		if str, ok := v.(string); ok && str == "" {
			return apperrors.NewValidationError(f.FieldName,
				fmt.Sprintf("field '%s' is required", f.FieldName))
		}
	}
	return nil
}

// fieldColumns returns the schema's field names in declaration order, which
// fixes the column order of generated DML.
func fieldColumns(s *schema.Schema) []string {
	cols := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, f.FieldName)
	}
	return cols
}

func isQueryableColumn(s *schema.Schema, name string) bool {
	return s.FieldByName(name) != nil || constants.IsSystemColumn(name)
}

func normalizePaging(page, size int) (int, int) {
	if page < 0 {
		page = constants.DefaultPage
	}
	if size <= 0 {
		size = constants.DefaultPageSize
	}
	if size > constants.MaxPageSize {
		size = constants.MaxPageSize
	}
	return page, size
}

func normalizeSort(s *schema.Schema, sortBy, sortDir string) (string, string, error) {
	if sortBy == "" {
		sortBy = constants.ColumnCreatedAt
	}
	if !isQueryableColumn(s, sortBy) {
		return "", "", apperrors.NewValidationError("sort",
			fmt.Sprintf("unknown sort field '%s'", sortBy))
	}

	switch strings.ToUpper(sortDir) {
	case "", constants.SortDESC:
		sortDir = constants.SortDESC
	case constants.SortASC:
		sortDir = constants.SortASC
	default:
		return "", "", apperrors.NewValidationError("sort",
			fmt.Sprintf("sort direction must be %s or %s", constants.SortASC, constants.SortDESC))
	}
	return sortBy, sortDir, nil
}

// mapRow splits a raw row into record identity, timestamps and the field
// data map. Only schema-defined fields surface in data; system columns and
// orphaned physical columns stay hidden.
func mapRow(s *schema.Schema, tenantID, schemaName string, row query.Row) *schema.Record {
	r := &schema.Record{
		TenantID:   tenantID,
		SchemaName: schemaName,
		Data:       make(map[string]interface{}, len(s.Fields)),
	}
	if id, ok := utils.ToInt64(row[constants.ColumnID]); ok {
		r.ID = id
	}
	if ts, ok := row[constants.ColumnCreatedAt].(time.Time); ok {
		r.CreatedAt = ts
	}
	if ts, ok := row[constants.ColumnUpdatedAt].(time.Time); ok {
		r.UpdatedAt = ts
	}
	for _, f := range s.Fields {
		if v, present := row[f.FieldName]; present {
			r.Data[f.FieldName] = v
		}
	}
	return r
}
