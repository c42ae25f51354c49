package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id on both requests and responses.
const RequestIDHeader = "X-Request-ID"

// RequestID returns a Gin middleware that ensures every request has a
// request id: an inbound id is kept, otherwise a fresh one is generated.
// The id is echoed on the response and stored on the context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// RequestIDFromGinContext returns the request id stored by RequestID.
func RequestIDFromGinContext(c *gin.Context) string {
	if value, ok := c.Get(RequestIDHeader); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
