package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
	"github.com/itangbaotop/manuflex-sub000/pkg/query"
)

// RecordRepository runs DML against materialized data tables. Every statement
// it emits carries a tenant_id predicate; rows of other tenants are invisible
// even when a table name is guessed.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Insert writes one row and returns its auto-generated id. The data map must
// already be validated and defaulted; keys become column names verbatim.
func (r *RecordRepository) Insert(ctx context.Context, table, tenantID string, data map[string]interface{}, columns []string) (int64, error) {
	b := query.Insert(table)
	b.Set(constants.ColumnTenantID, tenantID)
	b.SetRaw(constants.ColumnCreatedAt, "NOW()")
	b.SetRaw(constants.ColumnUpdatedAt, "NOW()")
	for _, col := range columns {
		if v, ok := data[col]; ok {
			b.Set(col, v)
		}
	}

	q := b.Build()
	result, err := r.db.ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// FindByID returns one row as a column map, or nil when no row of the tenant
// has that id.
func (r *RecordRepository) FindByID(ctx context.Context, table, tenantID string, id int64) (query.Row, error) {
	b := query.From(table).
		Where(fmt.Sprintf("`%s` = ?", constants.ColumnID), id).
		Where(fmt.Sprintf("`%s` = ?", constants.ColumnTenantID), tenantID).
		Limit(1)

	q := b.Build()
	rows, err := r.db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	result, err := query.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

// List returns one page of rows plus the unpaged match count.
func (r *RecordRepository) List(ctx context.Context, table, tenantID string, filters []query.CompiledFilter, sortBy, sortDir string, page, size int) ([]query.Row, int64, error) {
	filtered := func() *query.Builder {
		b := query.From(table).Where(fmt.Sprintf("`%s` = ?", constants.ColumnTenantID), tenantID)
		return query.ApplyFilters(b, filters)
	}

	countQ := filtered().Count().Build()
	var total int64
	if err := r.db.QueryRowContext(ctx, countQ.SQL, countQ.Params...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}

	q := filtered().OrderBy(sortBy, sortDir).Limit(size).Offset(page * size).Build()
	rows, err := r.db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	result, err := query.ScanRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// Update rewrites the given columns of one row. Returns the affected count so
// callers can distinguish a missing row from a no-op.
func (r *RecordRepository) Update(ctx context.Context, table, tenantID string, id int64, data map[string]interface{}, columns []string) (int64, error) {
	b := query.Update(table)
	b.SetRaw(constants.ColumnUpdatedAt, "NOW()")
	for _, col := range columns {
		if v, ok := data[col]; ok {
			b.Set(col, v)
		}
	}
	b.Where(fmt.Sprintf("`%s` = ?", constants.ColumnID), id).
		Where(fmt.Sprintf("`%s` = ?", constants.ColumnTenantID), tenantID)

	q := b.Build()
	result, err := r.db.ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// Delete removes one row of the tenant and reports whether it existed.
func (r *RecordRepository) Delete(ctx context.Context, table, tenantID string, id int64) (bool, error) {
	b := query.Delete(table).
		Where(fmt.Sprintf("`%s` = ?", constants.ColumnID), id).
		Where(fmt.Sprintf("`%s` = ?", constants.ColumnTenantID), tenantID)

	q := b.Build()
	result, err := r.db.ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
