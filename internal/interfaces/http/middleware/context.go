package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/auth"
)

// gin.Context keys set by the auth middleware
const (
	RequestIDKey      = "request_id"
	ClaimsKey         = "auth_claims"
	ScopeKey          = "auth_scope"
	RequestContextKey = "auth_request_context"
	APIKeyKey         = "auth_api_key"
)

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// GetClaims returns the verified token claims, nil on API-key or public routes
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetScope returns the trusted scope of the request
func GetScope(c *gin.Context) (shared.Scope, bool) {
	if v, ok := c.Get(ScopeKey); ok {
		if scope, ok := v.(shared.Scope); ok {
			return scope, true
		}
	}
	return shared.Scope{}, false
}

// GetRequestContext returns the context resolved by ContextResolver
func GetRequestContext(c *gin.Context) *identity.RequestContext {
	if v, ok := c.Get(RequestContextKey); ok {
		if rc, ok := v.(*identity.RequestContext); ok {
			return rc
		}
	}
	return nil
}

// GetAPIKey returns the key that authenticated the request
func GetAPIKey(c *gin.Context) *identity.APIKey {
	if v, ok := c.Get(APIKeyKey); ok {
		if key, ok := v.(*identity.APIKey); ok {
			return key
		}
	}
	return nil
}

func setScope(c *gin.Context, scope shared.Scope) {
	c.Set(ScopeKey, scope)
}
