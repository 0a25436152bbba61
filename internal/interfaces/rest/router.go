package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itangbaotop/manuflex-sub000/internal/application/services"
	"github.com/itangbaotop/manuflex-sub000/internal/interfaces/middleware"
)

// NewRouter wires all HTTP routes. Everything under /api requires the
// gateway-injected tenant header.
func NewRouter(schemas *services.SchemaService, records *services.RecordService) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.Cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	schemaHandler := NewSchemaHandler(schemas)
	recordHandler := NewRecordHandler(records)

	api := router.Group("/api")
	api.Use(middleware.RequireTenant())
	{
		api.POST("/schemas", schemaHandler.Create)
		api.GET("/schemas", schemaHandler.List)
		api.GET("/schemas/registry/check", schemaHandler.CheckRegistry)
		api.GET("/schemas/by-name/:name", schemaHandler.GetByName)
		api.GET("/schemas/:id", schemaHandler.GetByID)
		api.PATCH("/schemas/:id", schemaHandler.Update)
		api.DELETE("/schemas/:id", schemaHandler.Delete)
		api.POST("/schemas/:id/table", schemaHandler.MaterializeTable)

		api.POST("/schemas/:id/fields", schemaHandler.CreateField)
		api.GET("/schemas/:id/fields", schemaHandler.ListFields)
		api.PATCH("/fields/:id", schemaHandler.UpdateField)
		api.DELETE("/fields/:id", schemaHandler.DeleteField)

		api.POST("/records/:schemaName", recordHandler.Create)
		api.GET("/records/:schemaName", recordHandler.List)
		api.GET("/records/:schemaName/:id", recordHandler.Get)
		api.PATCH("/records/:schemaName/:id", recordHandler.Update)
		api.DELETE("/records/:schemaName/:id", recordHandler.Delete)
	}

	return router
}
