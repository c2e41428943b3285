package response

import (
	"net/http"
	"strconv"
	"strings"

	"anoa.com/userservice/pkg/apperror"
	"anoa.com/userservice/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Context keys written by the identity middleware.
const (
	ExternalIDKey = "external_id"
	RoleKey       = "role"
)

// GetExternalID retrieves the authenticated external identity from the context
func GetExternalID(c *gin.Context) (string, error) {
	value, exists := c.Get(ExternalIDKey)
	if !exists {
		return "", apperror.Unauthorized("authentication required")
	}

	externalID, ok := value.(string)
	if !ok || externalID == "" {
		return "", apperror.Unauthorized("authentication required")
	}

	return externalID, nil
}

// GetRole returns the role asserted by the identity layer, empty when none was supplied.
func GetRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}

// ParamID parses a positive integer path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.BadRequest("invalid " + strings.ReplaceAll(name, "_", " "))
	}
	return id, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		if code == http.StatusInternalServerError {
			c.JSON(code, gin.H{"error": "internal server error"})
			return
		}
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
