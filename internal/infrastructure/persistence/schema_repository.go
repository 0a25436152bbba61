package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
)

// SchemaRepository persists the declarative schema/field definitions in the
// mf_schema and mf_field tables.
type SchemaRepository struct {
	db *sql.DB
}

// NewSchemaRepository creates a new SchemaRepository
func NewSchemaRepository(db *sql.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// GetExecutor returns the transaction if present, or the DB connection
func (r *SchemaRepository) GetExecutor(tx *sql.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

const schemaColumns = "id, name, description, tenant_id, created_at, updated_at"
const fieldColumns = "id, schema_id, field_name, field_type, label, required, default_value, validation_rule, options, description, related_schema_name, related_field_name"

// InsertSchema inserts the schema row and all of its field rows. Callers run
// it inside a transaction so definition persistence is all-or-nothing.
func (r *SchemaRepository) InsertSchema(ctx context.Context, tx *sql.Tx, s *schema.Schema) error {
	exec := r.GetExecutor(tx)

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (id, name, description, tenant_id, created_at, updated_at) VALUES (?, ?, ?, ?, NOW(), NOW())",
		constants.TableSchema)
	if _, err := exec.ExecContext(ctx, insertSQL, s.ID, s.Name, ToNullString(s.Description), s.TenantID); err != nil {
		return fmt.Errorf("failed to insert schema %s: %w", s.Name, err)
	}

	for i := range s.Fields {
		s.Fields[i].SchemaID = s.ID
		if err := r.InsertField(ctx, tx, &s.Fields[i], i); err != nil {
			return err
		}
	}
	return nil
}

// InsertField inserts one field row at the given sort position.
func (r *SchemaRepository) InsertField(ctx context.Context, tx *sql.Tx, f *schema.Field, sortOrder int) error {
	exec := r.GetExecutor(tx)

	options, err := marshalOptions(f.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options for field %s: %w", f.FieldName, err)
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		constants.TableField, fieldColumns)
	_, err = exec.ExecContext(ctx, insertSQL,
		f.ID, f.SchemaID, f.FieldName, string(f.FieldType), f.Label, f.Required,
		ToNullString(f.DefaultValue), ToNullString(f.ValidationRule), options,
		ToNullString(f.Description), ToNullString(f.RelatedSchemaName), ToNullString(f.RelatedFieldName),
		sortOrder)
	if err != nil {
		return fmt.Errorf("failed to insert field %s: %w", f.FieldName, err)
	}
	return nil
}

// GetSchemaByID loads a schema definition with its fields. Returns nil when absent.
func (r *SchemaRepository) GetSchemaByID(ctx context.Context, id string) (*schema.Schema, error) {
	querySQL := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", schemaColumns, constants.TableSchema)
	return r.getSchema(ctx, querySQL, id)
}

// GetSchemaByName loads a schema definition by its tenant-scoped name. Returns nil when absent.
func (r *SchemaRepository) GetSchemaByName(ctx context.Context, name, tenantID string) (*schema.Schema, error) {
	querySQL := fmt.Sprintf("SELECT %s FROM %s WHERE name = ? AND tenant_id = ?", schemaColumns, constants.TableSchema)
	return r.getSchema(ctx, querySQL, name, tenantID)
}

func (r *SchemaRepository) getSchema(ctx context.Context, querySQL string, args ...interface{}) (*schema.Schema, error) {
	var s schema.Schema
	var description sql.NullString

	row := r.db.QueryRowContext(ctx, querySQL, args...)
	err := row.Scan(&s.ID, &s.Name, &description, &s.TenantID, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	s.Description = FromNullString(description)

	fields, err := r.ListFields(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Fields = fields
	return &s, nil
}

// ListSchemas returns all schema definitions of a tenant, fields included.
func (r *SchemaRepository) ListSchemas(ctx context.Context, tenantID string) ([]*schema.Schema, error) {
	querySQL := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = ? ORDER BY name", schemaColumns, constants.TableSchema)
	rows, err := r.db.QueryContext(ctx, querySQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	schemas := make([]*schema.Schema, 0)
	for rows.Next() {
		var s schema.Schema
		var description sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &description, &s.TenantID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", err)
		}
		s.Description = FromNullString(description)
		schemas = append(schemas, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range schemas {
		fields, err := r.ListFields(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		s.Fields = fields
	}
	return schemas, nil
}

// SchemaExists checks the (name, tenant) uniqueness constraint.
func (r *SchemaRepository) SchemaExists(ctx context.Context, name, tenantID string) (bool, error) {
	querySQL := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE name = ? AND tenant_id = ?)", constants.TableSchema)
	var exists bool
	if err := r.db.QueryRowContext(ctx, querySQL, name, tenantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check schema existence: %w", err)
	}
	return exists, nil
}

// UpdateSchema applies a name/description patch to the schema row.
func (r *SchemaRepository) UpdateSchema(ctx context.Context, id string, patch schema.SchemaPatch) error {
	setSQL := "updated_at = NOW()"
	args := make([]interface{}, 0, 3)
	if patch.Name != nil {
		setSQL += ", name = ?"
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		setSQL += ", description = ?"
		args = append(args, *patch.Description)
	}
	args = append(args, id)

	updateSQL := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", constants.TableSchema, setSQL)
	if _, err := r.db.ExecContext(ctx, updateSQL, args...); err != nil {
		return fmt.Errorf("failed to update schema %s: %w", id, err)
	}
	return nil
}

// DeleteSchema removes the schema row and cascades to its field rows.
func (r *SchemaRepository) DeleteSchema(ctx context.Context, tx *sql.Tx, id string) error {
	exec := r.GetExecutor(tx)

	fieldSQL := fmt.Sprintf("DELETE FROM %s WHERE schema_id = ?", constants.TableField)
	if _, err := exec.ExecContext(ctx, fieldSQL, id); err != nil {
		return fmt.Errorf("failed to delete fields of schema %s: %w", id, err)
	}

	schemaSQL := fmt.Sprintf("DELETE FROM %s WHERE id = ?", constants.TableSchema)
	if _, err := exec.ExecContext(ctx, schemaSQL, id); err != nil {
		return fmt.Errorf("failed to delete schema %s: %w", id, err)
	}
	return nil
}

// ListFields returns the fields of a schema in declaration order.
func (r *SchemaRepository) ListFields(ctx context.Context, schemaID string) ([]schema.Field, error) {
	querySQL := fmt.Sprintf("SELECT %s FROM %s WHERE schema_id = ? ORDER BY sort_order", fieldColumns, constants.TableField)
	rows, err := r.db.QueryContext(ctx, querySQL, schemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fields := make([]schema.Field, 0)
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// GetFieldByID loads one field row. Returns nil when absent.
func (r *SchemaRepository) GetFieldByID(ctx context.Context, id string) (*schema.Field, error) {
	querySQL := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", fieldColumns, constants.TableField)
	rows, err := r.db.QueryContext(ctx, querySQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load field %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}
	f, err := scanField(rows)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FieldExists checks the per-schema field-name uniqueness constraint.
func (r *SchemaRepository) FieldExists(ctx context.Context, schemaID, fieldName string) (bool, error) {
	querySQL := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE schema_id = ? AND field_name = ?)", constants.TableField)
	var exists bool
	if err := r.db.QueryRowContext(ctx, querySQL, schemaID, fieldName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check field existence: %w", err)
	}
	return exists, nil
}

// NextSortOrder returns the sort position for a newly appended field.
func (r *SchemaRepository) NextSortOrder(ctx context.Context, schemaID string) (int, error) {
	querySQL := fmt.Sprintf("SELECT COALESCE(MAX(sort_order), -1) + 1 FROM %s WHERE schema_id = ?", constants.TableField)
	var next int
	if err := r.db.QueryRowContext(ctx, querySQL, schemaID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute field sort order: %w", err)
	}
	return next, nil
}

// UpdateField rewrites the mutable attributes of a field row. The field name
// and type are immutable once materialized (no column renames or retypes).
func (r *SchemaRepository) UpdateField(ctx context.Context, f *schema.Field) error {
	options, err := marshalOptions(f.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options for field %s: %w", f.FieldName, err)
	}

	updateSQL := fmt.Sprintf(
		"UPDATE %s SET label = ?, required = ?, default_value = ?, validation_rule = ?, options = ?, description = ?, related_schema_name = ?, related_field_name = ? WHERE id = ?",
		constants.TableField)
	_, err = r.db.ExecContext(ctx, updateSQL,
		f.Label, f.Required, ToNullString(f.DefaultValue), ToNullString(f.ValidationRule), options,
		ToNullString(f.Description), ToNullString(f.RelatedSchemaName), ToNullString(f.RelatedFieldName), f.ID)
	if err != nil {
		return fmt.Errorf("failed to update field %s: %w", f.ID, err)
	}
	return nil
}

// DeleteField removes one field row.
func (r *SchemaRepository) DeleteField(ctx context.Context, id string) error {
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE id = ?", constants.TableField)
	if _, err := r.db.ExecContext(ctx, deleteSQL, id); err != nil {
		return fmt.Errorf("failed to delete field %s: %w", id, err)
	}
	return nil
}

func scanField(rows *sql.Rows) (schema.Field, error) {
	var f schema.Field
	var fieldType string
	var defaultValue, validationRule, options, description, relatedSchema, relatedField sql.NullString

	err := rows.Scan(&f.ID, &f.SchemaID, &f.FieldName, &fieldType, &f.Label, &f.Required,
		&defaultValue, &validationRule, &options, &description, &relatedSchema, &relatedField)
	if err != nil {
		return f, fmt.Errorf("failed to scan field: %w", err)
	}

	f.FieldType = schema.FieldType(fieldType)
	f.DefaultValue = FromNullString(defaultValue)
	f.ValidationRule = FromNullString(validationRule)
	f.Description = FromNullString(description)
	f.RelatedSchemaName = FromNullString(relatedSchema)
	f.RelatedFieldName = FromNullString(relatedField)

	if options.Valid && options.String != "" {
		if err := json.Unmarshal([]byte(options.String), &f.Options); err != nil {
			return f, fmt.Errorf("corrupt options for field %s: %w", f.ID, err)
		}
	}
	return f, nil
}

func marshalOptions(options []string) (sql.NullString, error) {
	if len(options) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(options)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
