package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itangbaotop/manuflex-sub000/internal/application/services"
	"github.com/itangbaotop/manuflex-sub000/internal/domain/schema"
	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
)

type SchemaHandler struct {
	schemas *services.SchemaService
}

func NewSchemaHandler(schemas *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{schemas: schemas}
}

// Create handles POST /api/schemas
func (h *SchemaHandler) Create(c *gin.Context) {
	var req services.CreateSchemaRequest
	if !BindJSON(c, &req) {
		return
	}
	req.TenantID = TenantFromContext(c)

	s, err := h.schemas.CreateSchema(c.Request.Context(), req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Schema created",
		"schema":               s,
	})
}

// GetByID handles GET /api/schemas/:id
func (h *SchemaHandler) GetByID(c *gin.Context) {
	HandleGet(c, "schema", func() (interface{}, error) {
		return h.schemas.GetSchemaByID(c.Request.Context(), c.Param("id"))
	})
}

// GetByName handles GET /api/schemas/by-name/:name
func (h *SchemaHandler) GetByName(c *gin.Context) {
	HandleGet(c, "schema", func() (interface{}, error) {
		return h.schemas.GetSchemaByName(c.Request.Context(), c.Param("name"), TenantFromContext(c))
	})
}

// List handles GET /api/schemas
func (h *SchemaHandler) List(c *gin.Context) {
	HandleGet(c, "schemas", func() (interface{}, error) {
		return h.schemas.ListSchemas(c.Request.Context(), TenantFromContext(c))
	})
}

// Update handles PATCH /api/schemas/:id
func (h *SchemaHandler) Update(c *gin.Context) {
	var patch schema.SchemaPatch
	if !BindJSON(c, &patch) {
		return
	}

	s, err := h.schemas.UpdateSchema(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Schema updated",
		"schema":               s,
	})
}

// Delete handles DELETE /api/schemas/:id
func (h *SchemaHandler) Delete(c *gin.Context) {
	if err := h.schemas.DeleteSchema(c.Request.Context(), c.Param("id")); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Schema deleted"})
}

// MaterializeTable handles POST /api/schemas/:id/table. It re-derives the
// physical table from the stored definition, creating it or adding missing
// columns.
func (h *SchemaHandler) MaterializeTable(c *gin.Context) {
	if err := h.schemas.CreateOrUpdateTable(c.Request.Context(), c.Param("id")); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Table materialized"})
}

// CreateField handles POST /api/schemas/:id/fields
func (h *SchemaHandler) CreateField(c *gin.Context) {
	var req services.CreateFieldRequest
	if !BindJSON(c, &req) {
		return
	}

	f, err := h.schemas.CreateField(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Field created",
		"field":                f,
	})
}

// ListFields handles GET /api/schemas/:id/fields
func (h *SchemaHandler) ListFields(c *gin.Context) {
	HandleGet(c, "fields", func() (interface{}, error) {
		return h.schemas.ListFields(c.Request.Context(), c.Param("id"))
	})
}

// UpdateField handles PATCH /api/fields/:id
func (h *SchemaHandler) UpdateField(c *gin.Context) {
	var req services.UpdateFieldRequest
	if !BindJSON(c, &req) {
		return
	}

	f, err := h.schemas.UpdateField(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Field updated",
		"field":                f,
	})
}

// DeleteField handles DELETE /api/fields/:id
func (h *SchemaHandler) DeleteField(c *gin.Context) {
	if err := h.schemas.DeleteField(c.Request.Context(), c.Param("id")); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Field deleted"})
}

// CheckRegistry handles GET /api/schemas/registry/check
func (h *SchemaHandler) CheckRegistry(c *gin.Context) {
	issues, err := h.schemas.ValidateRegistry(c.Request.Context(), TenantFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"consistent": len(issues) == 0,
		"issues":     issues,
	})
}
