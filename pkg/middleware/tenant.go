package middleware

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// DefaultTenantID is the tenant used when a request names none.
const DefaultTenantID = "public"

// TenantParamName is the route parameter inspected for the tenant id.
const TenantParamName = "tenantId"

// tenantContextKey is an unexported key type to avoid collisions in the Gin context store.
type tenantContextKey string

const tenantIDContextKey tenantContextKey = "tenantID"

// tenantIDRegex validates tenant ids: lowercase alphanumeric slugs with
// hyphens, matching what the auth core accepts as tenant names.
var tenantIDRegex = regexp.MustCompile(`^[0-9a-z][0-9a-z-]{0,63}$`)

// TenantConfig captures the knobs for tenant extraction.
type TenantConfig struct {
	// ParamName is the route parameter inspected for the tenant id. Defaults
	// to TenantParamName when empty.
	ParamName string
	// DefaultTenantID is used when the route carries no tenant id. Defaults
	// to the public tenant when empty.
	DefaultTenantID string
}

// TenantExtractor returns a Gin middleware that reads the tenant id from the
// route parameter, falls back to the public tenant, and stores it on the Gin
// context for downstream handlers.
func TenantExtractor(cfg TenantConfig) gin.HandlerFunc {
	paramName := cfg.ParamName
	if paramName == "" {
		paramName = TenantParamName
	}
	defaultTenant := cfg.DefaultTenantID
	if defaultTenant == "" {
		defaultTenant = DefaultTenantID
	}

	return func(c *gin.Context) {
		tenantID := c.Param(paramName)
		if tenantID == "" {
			tenantID = defaultTenant
		}

		if !tenantIDRegex.MatchString(tenantID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid tenant id format",
			})
			return
		}

		c.Set(string(tenantIDContextKey), tenantID)
		ctx := context.WithValue(c.Request.Context(), tenantIDContextKey, tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// TenantIDFromGinContext extracts the tenant id previously stored by TenantExtractor.
func TenantIDFromGinContext(c *gin.Context) (string, error) {
	if value, ok := c.Get(string(tenantIDContextKey)); ok {
		if tenantID, ok := value.(string); ok && tenantID != "" {
			return tenantID, nil
		}
	}
	return "", errors.New("tenant id not found in context")
}

// TenantIDFromContext extracts the tenant id from a standard context, typically
// populated by TenantExtractor. It is useful in service/business layers where only
// context.Context is available.
func TenantIDFromContext(ctx context.Context) (string, error) {
	if value := ctx.Value(tenantIDContextKey); value != nil {
		if tenantID, ok := value.(string); ok && tenantID != "" {
			return tenantID, nil
		}
	}
	return "", errors.New("tenant id not found in context")
}
