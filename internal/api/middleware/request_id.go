package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	requestIDKey = "request_id"
	traceIDKey   = "trace_id"
)

// requestIDMaxLen bounds caller-supplied ids before they reach the logs.
const requestIDMaxLen = 64

// RequestID reuses X-Request-ID or generates a UUID, and echoes it back.
// When the request carries a sampled span its trace id is exposed as
// X-Trace-Id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.New().String()
		}

		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)

		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			tid := sc.TraceID().String()
			c.Set(traceIDKey, tid)
			c.Header("X-Trace-Id", tid)
		}

		c.Next()
	}
}
