package persistence

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/itangbaotop/manuflex-sub000/pkg/cache"
	apperrors "github.com/itangbaotop/manuflex-sub000/pkg/errors"
)

const (
	catalogMaxEntries = 1000
	catalogTTL        = time.Hour
)

// ColumnCatalog caches, per physical table, the ordered list of column names
// as reported by INFORMATION_SCHEMA. Misses are coalesced through the cache's
// single-flight loader so concurrent requests for the same table issue one
// introspection query. Every DDL mutation must call Invalidate before
// returning to its caller.
type ColumnCatalog struct {
	db    *sql.DB
	cache *cache.TTLCache[[]string]
}

// NewColumnCatalog creates a ColumnCatalog with the default bounds.
func NewColumnCatalog(db *sql.DB) *ColumnCatalog {
	return &ColumnCatalog{
		db:    db,
		cache: cache.New[[]string](catalogMaxEntries, catalogTTL),
	}
}

// Columns returns the ordered column names of tableName. A table that does
// not exist yields an empty slice. A failed catalog query is returned as an
// IntrospectionError and is never cached.
func (c *ColumnCatalog) Columns(ctx context.Context, tableName string) ([]string, error) {
	return c.cache.GetOrLoad(tableName, func() ([]string, error) {
		return c.queryColumns(ctx, tableName)
	})
}

// TableExists reports whether tableName has at least one column in the
// catalog. On introspection failure it logs loudly and degrades to false:
// the engine stays available, but absence and error are distinguishable in
// the logs (see IntrospectionError).
func (c *ColumnCatalog) TableExists(ctx context.Context, tableName string) bool {
	columns, err := c.Columns(ctx, tableName)
	if err != nil {
		log.Printf("🚨 Introspection failure degraded to 'table absent' for %s: %v", tableName, err)
		return false
	}
	return len(columns) > 0
}

// Invalidate drops the cached entry for tableName.
func (c *ColumnCatalog) Invalidate(tableName string) {
	c.cache.Invalidate(tableName)
}

func (c *ColumnCatalog) queryColumns(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := c.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, apperrors.NewIntrospectionError(tableName, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewIntrospectionError(tableName, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewIntrospectionError(tableName, err)
	}

	return columns, nil
}
