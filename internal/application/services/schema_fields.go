package services

import (
	"context"
	"fmt"
	"log"

	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
	apperrors "github.com/itangbaotop/manuflex-sub000/pkg/errors"
)

// Field-level registry operations. Fields belong exclusively to one schema
// and are mutated only through here, so definition and physical column stay
// in lockstep.

// UpdateFieldRequest carries the mutable attributes of a field. The name and
// type are fixed once materialized; there are no column renames or retypes.
type UpdateFieldRequest struct {
	Label             *string  `json:"label"`
	Required          *bool    `json:"required"`
	DefaultValue      *string  `json:"default_value"`
	ValidationRule    *string  `json:"validation_rule"`
	Options           []string `json:"options"`
	Description       *string  `json:"description"`
	RelatedSchemaName *string  `json:"related_schema_name"`
	RelatedFieldName  *string  `json:"related_field_name"`
}

// CreateField appends a field to an existing schema and issues the additive
// ALTER for its column. A failed ALTER compensates by removing the field
// definition again.
func (ss *SchemaService) CreateField(ctx context.Context, schemaID string, req CreateFieldRequest) (*schema.Field, error) {
	s, err := ss.GetSchemaByID(ctx, schemaID)
	if err != nil {
		return nil, err
	}

	f, err := buildField(req)
	if err != nil {
		return nil, err
	}
	f.SchemaID = s.ID

	exists, err := ss.schemas.FieldExists(ctx, s.ID, f.FieldName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflictError("field", "field_name", f.FieldName)
	}

	sortOrder, err := ss.schemas.NextSortOrder(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if err := ss.schemas.InsertField(ctx, nil, &f, sortOrder); err != nil {
		return nil, err
	}

	s.Fields = append(s.Fields, f)
	if err := ss.tables.UpdateTable(ctx, s); err != nil {
		log.Printf("❌ Column materialization failed for field %s.%s, rolling back definition: %v", s.Name, f.FieldName, err)
		if compErr := ss.schemas.DeleteField(ctx, f.ID); compErr != nil {
			log.Printf("🚨 Compensation failed, field %s definition is orphaned: %v", f.ID, compErr)
		}
		return nil, err
	}

	log.Printf("➕ Field added: %s.%s (%s)", s.Name, f.FieldName, f.FieldType)
	return &f, nil
}

// UpdateField patches the mutable attributes of a field. Existing rows keep
// their stored values; a changed requiredness or default only affects rows
// written afterwards.
func (ss *SchemaService) UpdateField(ctx context.Context, id string, req UpdateFieldRequest) (*schema.Field, error) {
	f, err := ss.schemas.GetFieldByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, apperrors.NewNotFoundError("field", id)
	}

	if req.Label != nil {
		f.Label = *req.Label
	}
	if req.Required != nil {
		f.Required = *req.Required
	}
	if req.DefaultValue != nil {
		f.DefaultValue = req.DefaultValue
	}
	if req.ValidationRule != nil {
		f.ValidationRule = req.ValidationRule
	}
	if req.Options != nil {
		if f.FieldType == schema.FieldTypeEnum && len(req.Options) == 0 {
			return nil, apperrors.NewValidationError("options",
				fmt.Sprintf("ENUM field '%s' needs at least one option", f.FieldName))
		}
		f.Options = req.Options
	}
	if req.Description != nil {
		f.Description = req.Description
	}
	if req.RelatedSchemaName != nil {
		f.RelatedSchemaName = req.RelatedSchemaName
	}
	if req.RelatedFieldName != nil {
		f.RelatedFieldName = req.RelatedFieldName
	}

	if err := ss.schemas.UpdateField(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteField removes a field definition. The physical column is retained
// with its data; only additive structural changes are ever issued.
func (ss *SchemaService) DeleteField(ctx context.Context, id string) error {
	f, err := ss.schemas.GetFieldByID(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return apperrors.NewNotFoundError("field", id)
	}

	if err := ss.schemas.DeleteField(ctx, id); err != nil {
		return err
	}
	log.Printf("📝 Field definition removed: %s (column retained)", f.FieldName)
	return nil
}

// ListFields returns the fields of a schema in declaration order.
func (ss *SchemaService) ListFields(ctx context.Context, schemaID string) ([]schema.Field, error) {
	if _, err := ss.GetSchemaByID(ctx, schemaID); err != nil {
		return nil, err
	}
	return ss.schemas.ListFields(ctx, schemaID)
}
