package rest

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itangbaotop/manuflex-sub000/pkg/constants"
	"github.com/itangbaotop/manuflex-sub000/pkg/errors"
)

// TenantFromContext returns the tenant id stored by the tenant middleware.
func TenantFromContext(c *gin.Context) string {
	return c.GetString(constants.ContextKeyTenant)
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	message := err.Error()

	if code >= 500 {
		log.Printf("❌ ERROR [%d] %s %s: %s", code, c.Request.Method, c.Request.URL.Path, message)
	}

	c.JSON(code, gin.H{
		constants.ResponseError: message,
		constants.FieldMessage:  message,
		"code":                  errors.GetErrorCode(err),
		"data":                  nil,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGet executes a read action and returns the result wrapped in a JSON key.
func HandleGet(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}
