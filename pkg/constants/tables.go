package constants

import "strings"

// Definition tables - store the declarative schema/field metadata.
const (
	TableSchema = "mf_schema"
	TableField  = "mf_field"

	// DataTablePrefix prefixes every materialized data table:
	// mf_data_<tenantId>_<sanitizedSchemaName>
	DataTablePrefix = "mf_data_"
)

// Fixed system columns of every data table, in physical declaration order.
const (
	ColumnID        = "id"
	ColumnTenantID  = "tenant_id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnCreatedBy = "created_by"
	ColumnDeptID    = "dept_id"
)

// SystemColumns returns the fixed column names in declaration order.
// Returned as a fresh slice so callers can append safely.
func SystemColumns() []string {
	return []string{
		ColumnID,
		ColumnTenantID,
		ColumnCreatedAt,
		ColumnUpdatedAt,
		ColumnCreatedBy,
		ColumnDeptID,
	}
}

// IsSystemColumn reports whether name is one of the fixed system columns.
func IsSystemColumn(name string) bool {
	switch name {
	case ColumnID, ColumnTenantID, ColumnCreatedAt, ColumnUpdatedAt, ColumnCreatedBy, ColumnDeptID:
		return true
	}
	return false
}

// IsDataTable reports whether tableName is a materialized data table.
func IsDataTable(tableName string) bool {
	return strings.HasPrefix(tableName, DataTablePrefix)
}

// Sort directions accepted by the query builder.
const (
	SortASC  = "ASC"
	SortDESC = "DESC"
)

// Pagination defaults for record listing.
const (
	DefaultPage     = 0
	DefaultPageSize = 10
	MaxPageSize     = 200
)

// Identifier length bounds for schema and field names.
const (
	IdentifierMinLen = 3
	IdentifierMaxLen = 100
)
