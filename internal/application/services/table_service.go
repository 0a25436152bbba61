package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
	"github.com/itangbaotop/manuflex-sub000/internal/infrastructure/persistence"
	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
	"github.com/itangbaotop/manuflex-sub000/pkg/fieldtypes"
)

// TableService materializes schema definitions as physical MySQL tables.
// Structural mutations for the same physical table are serialized through a
// keyed mutex; record DML is unaffected.
type TableService struct {
	tables  *persistence.TableRepository
	catalog *persistence.ColumnCatalog

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTableService creates a new TableService
func NewTableService(tables *persistence.TableRepository, catalog *persistence.ColumnCatalog) *TableService {
	return &TableService{
		tables:  tables,
		catalog: catalog,
		locks:   make(map[string]*sync.Mutex),
	}
}

// BuildTableName derives the physical table name for a tenant's schema:
// mf_data_<tenantId>_<sanitized(schemaName)>. It is the single source of
// this derivation; nothing else may re-derive table names.
func BuildTableName(tenantID, schemaName string) string {
	return constants.DataTablePrefix + sanitizeIdentifier(tenantID) + "_" + sanitizeIdentifier(schemaName)
}

// sanitizeIdentifier lower-cases and replaces anything outside [a-z0-9_]
// with an underscore.
func sanitizeIdentifier(s string) string {
	lower := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// systemColumnDefinitions returns the fixed leading columns every data table
// carries, in their canonical order.
func systemColumnDefinitions() []schema.ColumnDefinition {
	return []schema.ColumnDefinition{
		{Name: constants.ColumnID, Clause: "BIGINT AUTO_INCREMENT PRIMARY KEY"},
		{Name: constants.ColumnTenantID, Clause: "VARCHAR(64) NOT NULL"},
		{Name: constants.ColumnCreatedAt, Clause: "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"},
		{Name: constants.ColumnUpdatedAt, Clause: "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"},
		{Name: constants.ColumnCreatedBy, Clause: "VARCHAR(64) NULL"},
		{Name: constants.ColumnDeptID, Clause: "VARCHAR(64) NULL"},
	}
}

// CreateTable materializes the physical table for s. Idempotent: an existing
// table is left untouched.
func (ts *TableService) CreateTable(ctx context.Context, s *schema.Schema) error {
	tableName := BuildTableName(s.TenantID, s.Name)
	unlock := ts.lockTable(tableName)
	defer unlock()

	return ts.createTableLocked(ctx, tableName, s)
}

func (ts *TableService) createTableLocked(ctx context.Context, tableName string, s *schema.Schema) error {
	if ts.catalog.TableExists(ctx, tableName) {
		log.Printf("📐 Table %s already exists, skipping creation", tableName)
		return nil
	}

	columns := systemColumnDefinitions()
	for _, f := range s.Fields {
		columns = append(columns, fieldtypes.ColumnDefinition(f))
	}

	return ts.tables.CreateTable(ctx, schema.TableDefinition{
		TableName: tableName,
		Columns:   columns,
	})
}

// UpdateTable reconciles the physical table with s by adding columns for
// fields the table does not have yet. Removed or retyped fields are left
// alone; the physical column outlives its definition. A table that does not
// exist at all is created instead.
func (ts *TableService) UpdateTable(ctx context.Context, s *schema.Schema) error {
	tableName := BuildTableName(s.TenantID, s.Name)
	unlock := ts.lockTable(tableName)
	defer unlock()

	if !ts.catalog.TableExists(ctx, tableName) {
		log.Printf("⚠️ Table %s missing during update, creating it", tableName)
		return ts.createTableLocked(ctx, tableName, s)
	}

	existing, err := ts.catalog.Columns(ctx, tableName)
	if err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", tableName, err)
	}
	present := make(map[string]bool, len(existing))
	for _, col := range existing {
		present[col] = true
	}

	for _, f := range s.Fields {
		if present[f.FieldName] {
			continue
		}
		if err := ts.tables.AddColumn(ctx, tableName, fieldtypes.ColumnDefinition(f)); err != nil {
			return err
		}
	}
	return nil
}

// DropTable removes the physical table of a tenant's schema. Dropping an
// absent table is logged and succeeds.
func (ts *TableService) DropTable(ctx context.Context, tenantID, schemaName string) error {
	tableName := BuildTableName(tenantID, schemaName)
	unlock := ts.lockTable(tableName)
	defer unlock()

	if !ts.catalog.TableExists(ctx, tableName) {
		log.Printf("⚠️ Table %s already absent, nothing to drop", tableName)
		return nil
	}
	return ts.tables.DropTable(ctx, tableName)
}

// TableExists reports whether the physical table of a tenant's schema exists.
func (ts *TableService) TableExists(ctx context.Context, tenantID, schemaName string) bool {
	return ts.catalog.TableExists(ctx, BuildTableName(tenantID, schemaName))
}

// Columns returns the physical column order of a tenant's schema table.
func (ts *TableService) Columns(ctx context.Context, tenantID, schemaName string) ([]string, error) {
	return ts.catalog.Columns(ctx, BuildTableName(tenantID, schemaName))
}

// lockTable acquires the per-table structural mutation lock.
func (ts *TableService) lockTable(tableName string) func() {
	ts.mu.Lock()
	lock, ok := ts.locks[tableName]
	if !ok {
		lock = &sync.Mutex{}
		ts.locks[tableName] = lock
	}
	ts.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
