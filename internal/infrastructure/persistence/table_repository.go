package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
	apperrors "github.com/itangbaotop/manuflex-sub000/pkg/errors"
	"github.com/itangbaotop/manuflex-sub000/pkg/sqlguard"
)

var validTableName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// TableRepository executes DDL against materialized data tables. Every
// statement is validated by sqlguard before execution, runs inside a
// transaction, and invalidates the column catalog entry for its table
// before returning.
type TableRepository struct {
	db      *sql.DB
	catalog *ColumnCatalog
	guard   *sqlguard.Guard
}

// NewTableRepository creates a new TableRepository
func NewTableRepository(db *sql.DB, catalog *ColumnCatalog) *TableRepository {
	return &TableRepository{
		db:      db,
		catalog: catalog,
		guard:   sqlguard.New(),
	}
}

// CreateTable creates the physical table for def. Uses IF NOT EXISTS, so a
// concurrent or repeated create is harmless.
func (r *TableRepository) CreateTable(ctx context.Context, def schema.TableDefinition) error {
	log.Printf("📐 Creating table: %s", def.TableName)

	if !validTableName.MatchString(def.TableName) {
		return apperrors.NewValidationError("table_name",
			fmt.Sprintf("table name '%s' must be snake_case (lowercase, alphanumeric, underscores)", def.TableName))
	}

	var ddl strings.Builder
	ddl.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n", def.TableName))
	for i, col := range def.Columns {
		ddl.WriteString(fmt.Sprintf("  `%s` %s", col.Name, col.Clause))
		if i < len(def.Columns)-1 {
			ddl.WriteString(",")
		}
		ddl.WriteString("\n")
	}
	ddl.WriteString(") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")

	if err := r.execDDL(ctx, def.TableName, ddl.String()); err != nil {
		return err
	}

	log.Printf("✅ Table created: %s", def.TableName)
	return nil
}

// AddColumn issues one additive ALTER TABLE ADD COLUMN.
func (r *TableRepository) AddColumn(ctx context.Context, tableName string, col schema.ColumnDefinition) error {
	log.Printf("➕ Adding column %s to table %s", col.Name, tableName)

	if !validTableName.MatchString(tableName) {
		return apperrors.NewValidationError("table_name",
			fmt.Sprintf("invalid table name '%s': must be snake_case", tableName))
	}

	ddl := fmt.Sprintf("ALTER TABLE `%s` ADD COLUMN `%s` %s", tableName, col.Name, col.Clause)
	if err := r.execDDL(ctx, tableName, ddl); err != nil {
		return err
	}

	log.Printf("   ✅ Column added: %s.%s", tableName, col.Name)
	return nil
}

// DropTable drops the physical table. Dropping an absent table is a no-op.
func (r *TableRepository) DropTable(ctx context.Context, tableName string) error {
	log.Printf("🔥 Dropping table: %s", tableName)

	if !validTableName.MatchString(tableName) {
		return apperrors.NewValidationError("table_name",
			fmt.Sprintf("invalid table name '%s': must be snake_case", tableName))
	}

	ddl := fmt.Sprintf("DROP TABLE IF EXISTS `%s`", tableName)
	return r.execDDL(ctx, tableName, ddl)
}

// execDDL guards, executes and commits one DDL statement, then invalidates
// the catalog entry for the table. A failed statement surfaces as a fatal
// DDLError; nothing is retried.
func (r *TableRepository) execDDL(ctx context.Context, tableName, ddl string) error {
	if err := r.guard.ValidateDDL(ddl, tableName); err != nil {
		return apperrors.NewDDLError(tableName, ddl, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewDDLError(tableName, ddl, err)
	}

	log.Printf("📝 Executing DDL for %s:\n%s", tableName, ddl)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		_ = tx.Rollback()
		log.Printf("❌ DDL execution failed for %s: %v", tableName, err)
		return apperrors.NewDDLError(tableName, ddl, err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewDDLError(tableName, ddl, err)
	}

	// The physical layout changed; stale column lists must not survive the call.
	r.catalog.Invalidate(tableName)
	return nil
}
