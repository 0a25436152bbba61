package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/itangbaotop/manuflex-sub000/internal/application/services"
	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
	"github.com/itangbaotop/manuflex-sub000/pkg/errors"
)

type RecordHandler struct {
	records *services.RecordService
}

func NewRecordHandler(records *services.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

// Reserved query parameters; everything else is a filter key.
var reservedParams = map[string]bool{
	"page":     true,
	"size":     true,
	"sort_by":  true,
	"sort_dir": true,
}

// Create handles POST /api/records/:schemaName
func (h *RecordHandler) Create(c *gin.Context) {
	var data map[string]interface{}
	if !BindJSON(c, &data) {
		return
	}

	r, err := h.records.Insert(c.Request.Context(), TenantFromContext(c), c.Param("schemaName"), data)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Record created",
		"record":               r,
	})
}

// Get handles GET /api/records/:schemaName/:id
func (h *RecordHandler) Get(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	HandleGet(c, "record", func() (interface{}, error) {
		return h.records.GetByID(c.Request.Context(), TenantFromContext(c), c.Param("schemaName"), id)
	})
}

// List handles GET /api/records/:schemaName
func (h *RecordHandler) List(c *gin.Context) {
	opts := services.ListOptions{
		Page:    intQuery(c, "page", constants.DefaultPage),
		Size:    intQuery(c, "size", constants.DefaultPageSize),
		SortBy:  c.Query("sort_by"),
		SortDir: c.Query("sort_dir"),
		Filters: filterParams(c),
	}

	page, err := h.records.List(c.Request.Context(), TenantFromContext(c), c.Param("schemaName"), opts)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Update handles PATCH /api/records/:schemaName/:id
func (h *RecordHandler) Update(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	var patch map[string]interface{}
	if !BindJSON(c, &patch) {
		return
	}

	r, err := h.records.Update(c.Request.Context(), TenantFromContext(c), c.Param("schemaName"), id, patch)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Record updated",
		"record":               r,
	})
}

// Delete handles DELETE /api/records/:schemaName/:id
func (h *RecordHandler) Delete(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	if err := h.records.Delete(c.Request.Context(), TenantFromContext(c), c.Param("schemaName"), id); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Record deleted"})
}

func recordID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondAppError(c, errors.NewValidationError("id", "record id must be an integer"))
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// filterParams collects every non-reserved query parameter as a filter entry.
func filterParams(c *gin.Context) map[string]string {
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}
	return filters
}
