package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Profiling labels CPU samples taken while a request runs with its route,
// method, resource and tenant. Health and swagger paths are skipped.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || strings.HasPrefix(path, "/swagger") {
			c.Next()
			return
		}
		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(profilingLabels(c)...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) []string {
	route := c.FullPath()
	labels := []string{"method", c.Request.Method}
	if route != "" {
		labels = append(labels, "route", route)
	}
	if resource := resourceFromRoute(route); resource != "" {
		labels = append(labels, "resource", resource)
	}
	if scope, ok := GetScope(c); ok {
		labels = append(labels, "tenant_id", scope.TenantID.String())
	}
	return labels
}

// resourceFromRoute returns the first static segment after /api,
// e.g. "/api/leads/:id" -> "leads"
func resourceFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}
