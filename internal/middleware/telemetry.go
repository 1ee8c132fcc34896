package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/util"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware returns the otelgin server span middleware followed by TraceAttributes
func TracingMiddleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), TraceAttributes()}
}

// TraceAttributes tags the request span with the caller and the target scream.
// It must run inside the otelgin span, i.e. registered after it.
func TraceAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if handle := c.GetString(util.ContextHandle); handle != "" {
			span.SetAttributes(attribute.String("user.handle", handle))
		}
		if screamID := c.Param("screamId"); screamID != "" {
			span.SetAttributes(attribute.String("scream.id", screamID))
		}
		if profile := c.Param("handle"); profile != "" {
			span.SetAttributes(attribute.String("profile.handle", profile))
		}

		for _, ginErr := range c.Errors {
			if ginErr.Err != nil {
				span.RecordError(ginErr.Err, trace.WithStackTrace(true))
				span.SetStatus(codes.Error, ginErr.Error())
			}
		}
	}
}
