package middleware

import (
	"adminconsole/client"
	"adminconsole/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceMiddleware reuses the caller's X-Trace-ID or mints one, and puts it
// on the request context so backend calls forward it.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(client.TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Set("TraceID", traceID)
		c.Writer.Header().Set(client.TraceHeader, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Next()
	}
}
