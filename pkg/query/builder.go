package query

import (
	"fmt"
	"strings"
)

// QueryType represents the type of SQL query
type QueryType string

const (
	QueryTypeSelect QueryType = "SELECT"
	QueryTypeInsert QueryType = "INSERT"
	QueryTypeUpdate QueryType = "UPDATE"
	QueryTypeDelete QueryType = "DELETE"
)

// QueryResult represents the built SQL query and parameters
type QueryResult struct {
	SQL    string
	Params []interface{}
}

// Builder is a fluent SQL query builder. All values travel as bind
// parameters; identifiers are backtick-quoted when spliced.
type Builder struct {
	queryType    QueryType
	table        string
	fields       []string
	whereClauses []string
	params       []interface{}
	orderBy      string
	limit        *int
	offset       *int
	count        bool

	// Ordered column/value pairs for INSERT and UPDATE. Order is preserved
	// so generated SQL is deterministic and testable.
	setColumns []string
	setValues  []interface{}
}

// From creates a new SELECT query builder
func From(table string) *Builder {
	return &Builder{
		queryType:    QueryTypeSelect,
		table:        table,
		fields:       make([]string, 0),
		whereClauses: make([]string, 0),
		params:       make([]interface{}, 0),
	}
}

// Insert creates a new INSERT query builder
func Insert(table string) *Builder {
	return &Builder{
		queryType: QueryTypeInsert,
		table:     table,
		params:    make([]interface{}, 0),
	}
}

// Update creates a new UPDATE query builder
func Update(table string) *Builder {
	return &Builder{
		queryType:    QueryTypeUpdate,
		table:        table,
		whereClauses: make([]string, 0),
		params:       make([]interface{}, 0),
	}
}

// Delete creates a new DELETE query builder
func Delete(table string) *Builder {
	return &Builder{
		queryType:    QueryTypeDelete,
		table:        table,
		whereClauses: make([]string, 0),
		params:       make([]interface{}, 0),
	}
}

// Select specifies which fields to select
func (b *Builder) Select(fields []string) *Builder {
	if b.queryType != QueryTypeSelect {
		return b
	}

	for _, field := range fields {
		if field == "*" {
			b.fields = append(b.fields, "*")
			continue
		}
		b.fields = append(b.fields, fmt.Sprintf("`%s`", field))
	}

	return b
}

// Count turns the query into SELECT COUNT(*)
func (b *Builder) Count() *Builder {
	if b.queryType != QueryTypeSelect {
		return b
	}
	b.count = true
	return b
}

// Where adds a WHERE condition
func (b *Builder) Where(condition string, value ...interface{}) *Builder {
	b.whereClauses = append(b.whereClauses, condition)
	if len(value) > 0 {
		b.params = append(b.params, value...)
	}
	return b
}

// Set appends a column/value pair for INSERT or UPDATE. Call order defines
// column order in the generated statement.
func (b *Builder) Set(column string, value interface{}) *Builder {
	if b.queryType != QueryTypeInsert && b.queryType != QueryTypeUpdate {
		return b
	}
	b.setColumns = append(b.setColumns, column)
	b.setValues = append(b.setValues, value)
	return b
}

// SetRaw appends a column assigned to a raw SQL expression (e.g. NOW()).
// The expression must not contain user input.
func (b *Builder) SetRaw(column string, expression string) *Builder {
	if b.queryType != QueryTypeInsert && b.queryType != QueryTypeUpdate {
		return b
	}
	b.setColumns = append(b.setColumns, column)
	b.setValues = append(b.setValues, rawExpr(expression))
	return b
}

// rawExpr marks a value as a raw SQL expression rather than a bind parameter.
type rawExpr string

// OrderBy adds ORDER BY clause
func (b *Builder) OrderBy(field string, direction string) *Builder {
	if b.queryType != QueryTypeSelect {
		return b
	}
	b.orderBy = fmt.Sprintf("ORDER BY `%s` %s", field, direction)
	return b
}

// Limit adds LIMIT clause
func (b *Builder) Limit(n int) *Builder {
	if b.queryType != QueryTypeSelect {
		return b
	}
	b.limit = &n
	return b
}

// Offset adds OFFSET clause
func (b *Builder) Offset(n int) *Builder {
	if b.queryType != QueryTypeSelect {
		return b
	}
	b.offset = &n
	return b
}

// Build constructs the final SQL query
func (b *Builder) Build() QueryResult {
	var sql string
	var params []interface{}

	switch b.queryType {
	case QueryTypeSelect:
		sql = b.buildSelect()
		params = b.params

	case QueryTypeInsert:
		sql, params = b.buildInsert()

	case QueryTypeUpdate:
		sql, params = b.buildUpdate()

	case QueryTypeDelete:
		sql = b.buildDelete()
		params = b.params
	}

	return QueryResult{
		SQL:    sql,
		Params: params,
	}
}

func (b *Builder) buildSelect() string {
	var parts []string

	fields := "*"
	if b.count {
		fields = "COUNT(*)"
	} else if len(b.fields) > 0 {
		fields = strings.Join(b.fields, ", ")
	}
	parts = append(parts, fmt.Sprintf("SELECT %s FROM `%s`", fields, b.table))

	if len(b.whereClauses) > 0 {
		parts = append(parts, fmt.Sprintf("WHERE %s", strings.Join(b.whereClauses, " AND ")))
	}

	if b.orderBy != "" && !b.count {
		parts = append(parts, b.orderBy)
	}

	if b.limit != nil && !b.count {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *b.limit))
	}

	if b.offset != nil && !b.count {
		parts = append(parts, fmt.Sprintf("OFFSET %d", *b.offset))
	}

	return strings.Join(parts, " ")
}

func (b *Builder) buildInsert() (string, []interface{}) {
	var cols []string
	var placeholders []string
	var params []interface{}

	for i, col := range b.setColumns {
		cols = append(cols, fmt.Sprintf("`%s`", col))
		if expr, ok := b.setValues[i].(rawExpr); ok {
			placeholders = append(placeholders, string(expr))
		} else {
			placeholders = append(placeholders, "?")
			params = append(params, b.setValues[i])
		}
	}

	sql := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
		b.table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "))

	return sql, params
}

func (b *Builder) buildUpdate() (string, []interface{}) {
	var setClauses []string
	var params []interface{}

	for i, col := range b.setColumns {
		if expr, ok := b.setValues[i].(rawExpr); ok {
			setClauses = append(setClauses, fmt.Sprintf("`%s` = %s", col, expr))
		} else {
			setClauses = append(setClauses, fmt.Sprintf("`%s` = ?", col))
			params = append(params, b.setValues[i])
		}
	}

	sql := fmt.Sprintf("UPDATE `%s` SET %s", b.table, strings.Join(setClauses, ", "))

	if len(b.whereClauses) > 0 {
		sql += fmt.Sprintf(" WHERE %s", strings.Join(b.whereClauses, " AND "))
		params = append(params, b.params...)
	}

	return sql, params
}

func (b *Builder) buildDelete() string {
	sql := fmt.Sprintf("DELETE FROM `%s`", b.table)

	if len(b.whereClauses) > 0 {
		sql += fmt.Sprintf(" WHERE %s", strings.Join(b.whereClauses, " AND "))
	}

	return sql
}
