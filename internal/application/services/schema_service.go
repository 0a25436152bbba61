package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
	"github.com/itangbaotop/manuflex-sub000/internal/infrastructure/persistence"
	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
	apperrors "github.com/itangbaotop/manuflex-sub000/pkg/errors"
	"github.com/itangbaotop/manuflex-sub000/pkg/fieldtypes"
	"github.com/itangbaotop/manuflex-sub000/pkg/utils"
)

var validFieldName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

var titleCaser = cases.Title(language.English)

// SchemaService is the registry of schema definitions. It owns the
// mf_schema/mf_field tables and drives table materialization through the
// TableService; nothing else creates or mutates definitions.
type SchemaService struct {
	schemas *persistence.SchemaRepository
	tables  *TableService
	tx      *persistence.TransactionManager
}

// NewSchemaService creates a new SchemaService
func NewSchemaService(schemas *persistence.SchemaRepository, tables *TableService, tx *persistence.TransactionManager) *SchemaService {
	return &SchemaService{schemas: schemas, tables: tables, tx: tx}
}

// CreateSchemaRequest carries a new schema definition.
type CreateSchemaRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description *string              `json:"description"`
	TenantID    string               `json:"-"`
	Fields      []CreateFieldRequest `json:"fields"`
}

// CreateFieldRequest carries one field definition.
type CreateFieldRequest struct {
	FieldName         string           `json:"field_name" binding:"required"`
	FieldType         schema.FieldType `json:"field_type" binding:"required"`
	Label             string           `json:"label"`
	Required          bool             `json:"required"`
	DefaultValue      *string          `json:"default_value"`
	ValidationRule    *string          `json:"validation_rule"`
	Options           []string         `json:"options"`
	Description       *string          `json:"description"`
	RelatedSchemaName *string          `json:"related_schema_name"`
	RelatedFieldName  *string          `json:"related_field_name"`
}

// CreateSchema validates and persists a schema definition, then materializes
// its physical table. The definition insert is transactional; a failed
// materialization compensates by removing the definition again so the
// logical and physical schema never diverge.
func (ss *SchemaService) CreateSchema(ctx context.Context, req CreateSchemaRequest) (*schema.Schema, error) {
	if err := validateSchemaName(req.Name); err != nil {
		return nil, err
	}
	fields, err := buildFields(req.Fields)
	if err != nil {
		return nil, err
	}

	exists, err := ss.schemas.SchemaExists(ctx, req.Name, req.TenantID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflictError("schema", "name", req.Name)
	}

	now := time.Now()
	s := &schema.Schema{
		ID:          utils.GenerateID(),
		Name:        req.Name,
		Description: req.Description,
		TenantID:    req.TenantID,
		Fields:      fields,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = ss.tx.WithTransaction(func(tx *sql.Tx) error {
		return ss.schemas.InsertSchema(ctx, tx, s)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist schema definition: %w", err)
	}

	if err := ss.tables.CreateTable(ctx, s); err != nil {
		// Compensate: the definition must not outlive the failed table.
		log.Printf("❌ Table materialization failed for schema %s, rolling back definition: %v", s.Name, err)
		if compErr := ss.schemas.DeleteSchema(ctx, nil, s.ID); compErr != nil {
			log.Printf("🚨 Compensation failed, schema %s definition is orphaned: %v", s.ID, compErr)
		}
		return nil, err
	}

	log.Printf("✅ Schema created: %s (tenant %s, %d fields)", s.Name, s.TenantID, len(s.Fields))
	return s, nil
}

// CreateOrUpdateTable re-materializes a schema's physical table from its
// stored definition: an absent table is created, an existing one gains any
// columns that are missing. Repairs registry drift after a failed DDL.
func (ss *SchemaService) CreateOrUpdateTable(ctx context.Context, schemaID string) error {
	s, err := ss.GetSchemaByID(ctx, schemaID)
	if err != nil {
		return err
	}

	if err := ss.tables.UpdateTable(ctx, s); err != nil {
		return err
	}
	log.Printf("🔧 Table materialized for schema %s (tenant %s)", s.Name, s.TenantID)
	return nil
}

// GetSchemaByID returns a schema definition with its fields.
func (ss *SchemaService) GetSchemaByID(ctx context.Context, id string) (*schema.Schema, error) {
	if !utils.IsValidUUID(id) {
		return nil, apperrors.NewValidationError("id", "schema id must be a UUID")
	}
	s, err := ss.schemas.GetSchemaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperrors.NewNotFoundError("schema", id)
	}
	return s, nil
}

// GetSchemaByName returns a tenant's schema definition by name.
func (ss *SchemaService) GetSchemaByName(ctx context.Context, name, tenantID string) (*schema.Schema, error) {
	s, err := ss.schemas.GetSchemaByName(ctx, name, tenantID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperrors.NewNotFoundError("schema", name)
	}
	return s, nil
}

// ListSchemas returns all schema definitions of a tenant.
func (ss *SchemaService) ListSchemas(ctx context.Context, tenantID string) ([]*schema.Schema, error) {
	return ss.schemas.ListSchemas(ctx, tenantID)
}

// UpdateSchema patches name and description. A rename is accepted only while
// it maps to the same physical table name; anything else would orphan the
// data table, so it is rejected.
func (ss *SchemaService) UpdateSchema(ctx context.Context, id string, patch schema.SchemaPatch) (*schema.Schema, error) {
	s, err := ss.GetSchemaByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && *patch.Name != s.Name {
		if err := validateSchemaName(*patch.Name); err != nil {
			return nil, err
		}
		if BuildTableName(s.TenantID, *patch.Name) != BuildTableName(s.TenantID, s.Name) {
			return nil, apperrors.NewValidationError("name",
				"renaming a schema would orphan its data table; create a new schema instead")
		}
		exists, err := ss.schemas.SchemaExists(ctx, *patch.Name, s.TenantID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.NewConflictError("schema", "name", *patch.Name)
		}
	}

	if err := ss.schemas.UpdateSchema(ctx, id, patch); err != nil {
		return nil, err
	}
	return ss.GetSchemaByID(ctx, id)
}

// DeleteSchema removes a schema definition, its fields, and its physical
// table. The definition delete and the DROP TABLE are coupled: a failed drop
// rolls the definition delete back.
func (ss *SchemaService) DeleteSchema(ctx context.Context, id string) error {
	s, err := ss.GetSchemaByID(ctx, id)
	if err != nil {
		return err
	}

	// The field cascade can deadlock against a concurrent CreateField on the
	// same schema; deadlocks are retried.
	err = ss.tx.WithRetry(func(tx *sql.Tx) error {
		if err := ss.schemas.DeleteSchema(ctx, tx, s.ID); err != nil {
			return err
		}
		return ss.tables.DropTable(ctx, s.TenantID, s.Name)
	}, 3)
	if err != nil {
		return err
	}

	log.Printf("🔥 Schema deleted: %s (tenant %s)", s.Name, s.TenantID)
	return nil
}

func validateSchemaName(name string) error {
	if len(name) < constants.IdentifierMinLen || len(name) > constants.IdentifierMaxLen {
		return apperrors.NewValidationError("name",
			fmt.Sprintf("schema name must be %d-%d characters", constants.IdentifierMinLen, constants.IdentifierMaxLen))
	}
	return nil
}

func validateFieldName(name string) error {
	if len(name) < constants.IdentifierMinLen || len(name) > constants.IdentifierMaxLen {
		return apperrors.NewValidationError("field_name",
			fmt.Sprintf("field name must be %d-%d characters", constants.IdentifierMinLen, constants.IdentifierMaxLen))
	}
	// Reject, never sanitize: a silently rewritten field name would desync
	// the definition from the physical column.
	if !validFieldName.MatchString(name) {
		return apperrors.NewValidationError("field_name",
			fmt.Sprintf("field name '%s' must start with a letter and contain only letters, digits and underscores", name))
	}
	if constants.IsSystemColumn(name) {
		return apperrors.NewValidationError("field_name",
			fmt.Sprintf("field name '%s' collides with a system column", name))
	}
	return nil
}

// buildFields validates the requested fields and assigns ids and labels.
func buildFields(reqs []CreateFieldRequest) ([]schema.Field, error) {
	fields := make([]schema.Field, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))

	for _, req := range reqs {
		f, err := buildField(req)
		if err != nil {
			return nil, err
		}
		if seen[f.FieldName] {
			return nil, apperrors.NewConflictError("field", "field_name", f.FieldName)
		}
		seen[f.FieldName] = true
		fields = append(fields, f)
	}
	return fields, nil
}

func buildField(req CreateFieldRequest) (schema.Field, error) {
	if err := validateFieldName(req.FieldName); err != nil {
		return schema.Field{}, err
	}
	if !fieldtypes.IsKnownType(req.FieldType) {
		return schema.Field{}, apperrors.NewValidationError("field_type",
			fmt.Sprintf("unknown field type '%s'", req.FieldType))
	}
	if req.FieldType == schema.FieldTypeEnum && len(req.Options) == 0 {
		return schema.Field{}, apperrors.NewValidationError("options",
			fmt.Sprintf("ENUM field '%s' needs at least one option", req.FieldName))
	}

	label := req.Label
	if label == "" {
		label = defaultLabel(req.FieldName)
	}

	return schema.Field{
		ID:                utils.GenerateID(),
		FieldName:         req.FieldName,
		FieldType:         req.FieldType,
		Label:             label,
		Required:          req.Required,
		DefaultValue:      req.DefaultValue,
		ValidationRule:    req.ValidationRule,
		Options:           req.Options,
		Description:       req.Description,
		RelatedSchemaName: req.RelatedSchemaName,
		RelatedFieldName:  req.RelatedFieldName,
	}, nil
}

// defaultLabel turns a snake_case field name into a display label
// ("order_total" -> "Order Total").
func defaultLabel(fieldName string) string {
	return titleCaser.String(strings.ReplaceAll(fieldName, "_", " "))
}
