package schema

import (
	"time"
)

// FieldType is the abstract type of a schema field. It is mapped to a
// physical column type by pkg/fieldtypes.
type FieldType string

const (
	FieldTypeString    FieldType = "STRING"
	FieldTypeText      FieldType = "TEXT"
	FieldTypeNumber    FieldType = "NUMBER"
	FieldTypeInteger   FieldType = "INTEGER"
	FieldTypeBoolean   FieldType = "BOOLEAN"
	FieldTypeDate      FieldType = "DATE"
	FieldTypeDateTime  FieldType = "DATETIME"
	FieldTypeEnum      FieldType = "ENUM"
	FieldTypeFile      FieldType = "FILE"
	FieldTypeReference FieldType = "REFERENCE"
)

// Field is one typed attribute of a Schema, mapped to exactly one physical column.
type Field struct {
	ID                string    `json:"id,omitempty"`
	SchemaID          string    `json:"schema_id,omitempty"`
	FieldName         string    `json:"field_name"`
	FieldType         FieldType `json:"field_type"`
	Label             string    `json:"label,omitempty"`
	Required          bool      `json:"required,omitempty"`
	DefaultValue      *string   `json:"default_value,omitempty"`
	ValidationRule    *string   `json:"validation_rule,omitempty"`
	Options           []string  `json:"options,omitempty"`
	Description       *string   `json:"description,omitempty"`
	RelatedSchemaName *string   `json:"related_schema_name,omitempty"`
	RelatedFieldName  *string   `json:"related_field_name,omitempty"`
}

// Schema is the declarative definition of a business entity: a named,
// tenant-scoped set of typed Fields. (Name, TenantID) is unique.
type Schema struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	TenantID    string    `json:"tenant_id"`
	Fields      []Field   `json:"fields"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// FieldByName returns the field with the given name, or nil.
func (s *Schema) FieldByName(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].FieldName == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// SchemaPatch carries the mutable top-level attributes of a Schema.
// Field-set changes go through the field-level operations instead.
type SchemaPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Record is a logical row of a materialized table. Data holds exactly the
// Field-defined columns; system columns are lifted into the envelope.
type Record struct {
	ID         int64          `json:"id"`
	TenantID   string         `json:"tenant_id"`
	SchemaName string         `json:"schema_name"`
	Data       map[string]any `json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Page is the pagination envelope returned by record listing.
type Page struct {
	Content       []Record `json:"content"`
	Page          int      `json:"page"`
	Size          int      `json:"size"`
	TotalElements int64    `json:"total_elements"`
	TotalPages    int      `json:"total_pages"`
	First         bool     `json:"first"`
	Last          bool     `json:"last"`
}

// ColumnDefinition represents a single physical column in a data table:
// its name plus the rendered type/constraint clause (e.g. "VARCHAR(255) NOT
// NULL DEFAULT 'ACTIVE'").
type ColumnDefinition struct {
	Name   string `json:"name"`
	Clause string `json:"clause"`
}

// TableDefinition represents a complete physical table layout: the fixed
// system columns followed by one column per Field, in declaration order.
type TableDefinition struct {
	TableName string             `json:"table_name"`
	Columns   []ColumnDefinition `json:"columns"`
}
