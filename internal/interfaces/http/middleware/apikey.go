package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// APIKeyHeader carries server-to-server credentials. It is distinct from the
// user bearer token.
const APIKeyHeader = "X-API-Key"

// APIKeyAuthenticator resolves a raw key to a usable stored key
type APIKeyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*identity.APIKey, error)
}

// APIKeyAuth authenticates the X-API-Key header, applies the key's own per
// minute quota and scopes the request to the key's tenant and organization.
func APIKeyAuth(authenticator APIKeyAuthenticator, limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(APIKeyHeader))
		if raw == "" {
			abortWithCode(c, dto.CodeUnauthorized, "API key requerida")
			return
		}
		key, err := authenticator.Authenticate(c.Request.Context(), raw)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !allowRequest(c, limiter, "apikey:"+key.ID.String(), key.RateLimitPerMinute) {
			return
		}

		scope := key.Scope()
		c.Set(APIKeyKey, key)
		setScope(c, scope)
		c.Request = c.Request.WithContext(scopedLoggerContext(c.Request.Context(), scope))
		c.Next()
	}
}

// RequireScope rejects API keys that were not granted scope
func RequireScope(scope identity.APIKeyScope) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetAPIKey(c)
		if key == nil {
			abortWithCode(c, dto.CodeUnauthorized, "API key requerida")
			return
		}
		if !key.HasScope(scope) {
			c.AbortWithStatusJSON(dto.StatusForCode("INSUFFICIENT_SCOPE"),
				dto.NewErrorResponse("INSUFFICIENT_SCOPE", "La API key no tiene el permiso requerido", string(scope)))
			return
		}
		c.Next()
	}
}
