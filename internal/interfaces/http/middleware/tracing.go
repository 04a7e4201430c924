// Package middleware holds the gin middleware of the CRM API: request ids,
// authentication, tenant scoping, rate limits and telemetry.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing wraps otelgin. Span names follow "METHOD /route/:param".
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// SpanEnricher adds request, tenant, organization and user ids to the server
// span once authentication has run, and marks 4xx/5xx responses as errors.
// Mount it after the auth middleware of a route group.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if scope, ok := GetScope(c); ok {
			span.SetAttributes(
				attribute.String("tenant_id", scope.TenantID.String()),
				attribute.String("organization_id", scope.OrganizationID.String()),
			)
			if key := GetAPIKey(c); key != nil {
				span.SetAttributes(attribute.String("api_key_prefix", key.Prefix))
			} else {
				span.SetAttributes(attribute.String("user_id", scope.UserID.String()))
			}
		}

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
	}
}
