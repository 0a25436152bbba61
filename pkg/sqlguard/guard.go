// Package sqlguard validates generated DDL before it reaches the database.
// Table and column names in DDL statements are derived from user-supplied
// schema definitions; every statement is parsed and checked against an
// allow-list of statement kinds and the expected target table, so a bug in
// identifier validation upstream cannot smuggle extra statements through.
package sqlguard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // ValueExpr implementation for DEFAULT literals
)

// Guard parses DDL statements and enforces the allow-list.
type Guard struct {
	parser *parser.Parser
	mu     sync.Mutex // parser.Parser is not safe for concurrent use
}

// New creates a Guard with its own parser instance.
func New() *Guard {
	return &Guard{parser: parser.New()}
}

// ValidateDDL checks that sqlText is exactly one CREATE TABLE, ALTER TABLE
// ADD COLUMN, or DROP TABLE statement targeting wantTable. Any other
// statement kind, multi-statement input, or mismatched table is rejected.
func (g *Guard) ValidateDDL(sqlText, wantTable string) error {
	g.mu.Lock()
	stmtNodes, _, err := g.parser.Parse(sqlText, "", "")
	g.mu.Unlock()
	if err != nil {
		return fmt.Errorf("DDL parse error: %v", err)
	}

	if len(stmtNodes) != 1 {
		return fmt.Errorf("expected a single DDL statement, got %d", len(stmtNodes))
	}

	switch stmt := stmtNodes[0].(type) {
	case *ast.CreateTableStmt:
		return checkTable("CREATE TABLE", stmt.Table, wantTable)

	case *ast.AlterTableStmt:
		if err := checkTable("ALTER TABLE", stmt.Table, wantTable); err != nil {
			return err
		}
		for _, spec := range stmt.Specs {
			if spec.Tp != ast.AlterTableAddColumns {
				return fmt.Errorf("ALTER TABLE on '%s': only ADD COLUMN is allowed", wantTable)
			}
		}
		return nil

	case *ast.DropTableStmt:
		if len(stmt.Tables) != 1 {
			return fmt.Errorf("DROP TABLE must target exactly one table")
		}
		return checkTable("DROP TABLE", stmt.Tables[0], wantTable)

	default:
		return fmt.Errorf("statement kind %T is not allowed", stmt)
	}
}

func checkTable(kind string, table *ast.TableName, wantTable string) error {
	if table == nil {
		return fmt.Errorf("%s: missing table name", kind)
	}
	if !strings.EqualFold(table.Name.O, wantTable) {
		return fmt.Errorf("%s targets '%s', expected '%s'", kind, table.Name.O, wantTable)
	}
	return nil
}
