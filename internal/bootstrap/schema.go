package bootstrap

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
)

// InitializeSchema creates the definition tables the registry lives in. The
// statements are idempotent; a restart against an initialized database is a
// no-op.
func InitializeSchema(db *sql.DB) error {
	log.Println("🔧 Initializing definition tables...")

	statements := []struct {
		table string
		ddl   string
	}{
		{constants.TableSchema, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id          VARCHAR(36)  NOT NULL PRIMARY KEY,
				name        VARCHAR(100) NOT NULL,
				description TEXT         NULL,
				tenant_id   VARCHAR(64)  NOT NULL,
				created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				UNIQUE KEY uk_schema_name_tenant (name, tenant_id),
				KEY idx_schema_tenant (tenant_id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, constants.TableSchema)},
		{constants.TableField, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id                  VARCHAR(36)  NOT NULL PRIMARY KEY,
				schema_id           VARCHAR(36)  NOT NULL,
				field_name          VARCHAR(100) NOT NULL,
				field_type          VARCHAR(20)  NOT NULL,
				label               VARCHAR(255) NOT NULL DEFAULT '',
				required            BOOLEAN      NOT NULL DEFAULT FALSE,
				default_value       VARCHAR(255) NULL,
				validation_rule     TEXT         NULL,
				options             TEXT         NULL,
				description         TEXT         NULL,
				related_schema_name VARCHAR(100) NULL,
				related_field_name  VARCHAR(100) NULL,
				sort_order          INT          NOT NULL DEFAULT 0,
				UNIQUE KEY uk_field_name_schema (schema_id, field_name),
				KEY idx_field_schema (schema_id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, constants.TableField)},
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.table, err)
		}
		log.Printf("   ✅ Definition table ready: %s", stmt.table)
	}
	return nil
}
