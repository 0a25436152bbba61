package services

import (
	"context"
	"fmt"
	"log"
)

// ValidateRegistry compares a tenant's schema definitions against the
// physical tables and reports every divergence found. It never mutates
// anything; operators decide what to do with the report.
func (ss *SchemaService) ValidateRegistry(ctx context.Context, tenantID string) ([]string, error) {
	schemas, err := ss.ListSchemas(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var issues []string
	for _, s := range schemas {
		if !ss.tables.TableExists(ctx, tenantID, s.Name) {
			issues = append(issues, fmt.Sprintf("schema '%s' has no physical table", s.Name))
			continue
		}

		columns, err := ss.tables.Columns(ctx, tenantID, s.Name)
		if err != nil {
			issues = append(issues, fmt.Sprintf("schema '%s': column introspection failed: %v", s.Name, err))
			continue
		}
		present := make(map[string]bool, len(columns))
		for _, col := range columns {
			present[col] = true
		}

		for _, f := range s.Fields {
			if !present[f.FieldName] {
				issues = append(issues, fmt.Sprintf("schema '%s': field '%s' has no physical column", s.Name, f.FieldName))
			}
		}
	}

	if len(issues) > 0 {
		log.Printf("⚠️ Registry check for tenant %s found %d issue(s)", tenantID, len(issues))
	}
	return issues, nil
}
