package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request through otelgin and tags it with the
// request id, the tenant and the authenticated user once the handlers have run
func Tracing(serviceName string) gin.HandlerFunc {
	base := otelgin.Middleware(serviceName)
	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		if tenant := c.GetString(TenantIDKey); tenant != "" {
			span.SetAttributes(attribute.String("tenant.id", tenant))
		}
		if claims, ok := GetClaims(c); ok {
			span.SetAttributes(attribute.String("user.id", claims.UserID))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(c.Writer.Status()))
		}
	}
}
