package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
)

// RequireTenant extracts the gateway-injected tenant header into the request
// context. Requests without it never reach a handler.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(constants.HeaderTenantID)
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				constants.ResponseError: "Bad Request",
				constants.FieldMessage:  "Missing " + constants.HeaderTenantID + " header",
				"code":                  "MISSING_TENANT",
				"data":                  nil,
			})
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTenant, tenantID)
		c.Next()
	}
}
