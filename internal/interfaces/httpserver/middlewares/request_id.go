package middlewares

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"apex-server/router-api/internal/utils/httpclients"
)

// HeaderRequestID is echoed back on every response so callers can
// correlate logs.
const HeaderRequestID = "X-Request-Id"

const requestIDKey = "request_id"

// RequestID assigns every request an id, reusing the caller's when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(HeaderRequestID, id)
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(HeaderRequestID, id)

		// Propagate into the stdlib context so outbound provider calls
		// log the same id.
		ctx := context.WithValue(c.Request.Context(), httpclients.RequestID{}, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequestIDFromContext returns the id assigned by RequestID, or "" when the
// middleware did not run.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
