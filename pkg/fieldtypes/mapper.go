package fieldtypes

import (
	"fmt"
	"strings"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
)

// sqlTypes maps an abstract field type to its physical MySQL column type.
var sqlTypes = map[schema.FieldType]string{
	schema.FieldTypeString:    "VARCHAR(255)",
	schema.FieldTypeText:      "TEXT",
	schema.FieldTypeNumber:    "DOUBLE",
	schema.FieldTypeInteger:   "BIGINT",
	schema.FieldTypeBoolean:   "BOOLEAN",
	schema.FieldTypeDate:      "DATE",
	schema.FieldTypeDateTime:  "DATETIME",
	schema.FieldTypeEnum:      "VARCHAR(255)",
	schema.FieldTypeFile:      "VARCHAR(500)",
	schema.FieldTypeReference: "BIGINT",
}

// DefaultColumnType is used when a field carries an unknown type.
const DefaultColumnType = "VARCHAR(255)"

// ColumnType returns the physical column type for an abstract field type.
func ColumnType(t schema.FieldType) string {
	if sqlType, ok := sqlTypes[t]; ok {
		return sqlType
	}
	return DefaultColumnType
}

// IsKnownType reports whether t is one of the supported field types.
func IsKnownType(t schema.FieldType) bool {
	_, ok := sqlTypes[t]
	return ok
}

// ColumnClause builds the full column clause for a field: type, NOT NULL when
// the field is required, and a DEFAULT when a default value is set. The column
// name is NOT included; callers quote and splice it themselves.
func ColumnClause(f schema.Field) string {
	var sb strings.Builder
	sb.WriteString(ColumnType(f.FieldType))

	if f.Required {
		sb.WriteString(" NOT NULL")
	}

	if f.DefaultValue != nil && *f.DefaultValue != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(quoteDefault(f.FieldType, *f.DefaultValue))
	}

	return sb.String()
}

// ColumnDefinition converts a field into its physical column definition.
func ColumnDefinition(f schema.Field) schema.ColumnDefinition {
	return schema.ColumnDefinition{
		Name:   f.FieldName,
		Clause: ColumnClause(f),
	}
}

// quoteDefault renders a default value literal for the given type. Numeric and
// boolean types are emitted bare after normalization; everything else is a
// quoted string literal.
func quoteDefault(t schema.FieldType, value string) string {
	switch t {
	case schema.FieldTypeNumber, schema.FieldTypeInteger, schema.FieldTypeReference:
		if isNumericLiteral(value) {
			return value
		}
	case schema.FieldTypeBoolean:
		switch strings.ToLower(value) {
		case "true", "1":
			return "TRUE"
		case "false", "0":
			return "FALSE"
		}
	}
	return fmt.Sprintf("'%s'", strings.ReplaceAll(value, "'", "''"))
}

func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '-' && i == 0:
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return true
}
