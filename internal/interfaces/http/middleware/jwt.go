package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/auth"
	"github.com/mar-ia/crm/internal/infrastructure/logger"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator verifies a context token
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// ContextResolver loads the request context a set of claims refers to
type ContextResolver interface {
	ResolveContext(ctx context.Context, claims *auth.Claims) (*identity.RequestContext, error)
}

// extractToken reads the bearer header first and falls back to the session cookie
func extractToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	}
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil {
			return v
		}
	}
	return ""
}

// JWTAuth requires a valid context token. The verified claims become the
// request scope; tenant and organization ids are never taken from the body.
func JWTAuth(validator TokenValidator, cookieName string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			abortWithCode(c, dto.CodeUnauthorized, "Token de autenticación requerido")
			return
		}

		claims, err := validator.Validate(token)
		if err != nil {
			log.Debug("Token rejected", zap.Error(err), zap.String("path", c.FullPath()))
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				abortWithCode(c, dto.CodeTokenExpired, "El token ha expirado")
			default:
				abortWithCode(c, dto.CodeTokenInvalid, "Token inválido")
			}
			return
		}

		scope, err := scopeFromClaims(claims)
		if err != nil {
			abortWithCode(c, dto.CodeTokenInvalid, "Token inválido")
			return
		}

		c.Set(ClaimsKey, claims)
		setScope(c, scope)
		c.Request = c.Request.WithContext(scopedLoggerContext(c.Request.Context(), scope))
		c.Next()
	}
}

// OptionalJWTAuth stores claims when a valid token is present and never aborts
func OptionalJWTAuth(validator TokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c, cookieName); token != "" {
			if claims, err := validator.Validate(token); err == nil {
				if scope, err := scopeFromClaims(claims); err == nil {
					c.Set(ClaimsKey, claims)
					setScope(c, scope)
				}
			}
		}
		c.Next()
	}
}

// ResolveContext loads the tenant, organization and user named by the token.
// Must run after JWTAuth. Entities that disappeared since the token was issued
// answer with their not-found error.
func ResolveContext(resolver ContextResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abortWithCode(c, dto.CodeUnauthorized, "Token de autenticación requerido")
			return
		}
		rc, err := resolver.ResolveContext(c.Request.Context(), claims)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(RequestContextKey, rc)
		c.Next()
	}
}

func scopeFromClaims(claims *auth.Claims) (shared.Scope, error) {
	tenantID, err := claims.TenantUUID()
	if err != nil {
		return shared.Scope{}, err
	}
	orgID, err := claims.OrganizationUUID()
	if err != nil {
		return shared.Scope{}, err
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return shared.Scope{}, err
	}
	scope := shared.Scope{TenantID: tenantID, OrganizationID: orgID, UserID: userID, Roles: claims.Roles}
	return scope, scope.Validate()
}

func scopedLoggerContext(ctx context.Context, scope shared.Scope) context.Context {
	log := logger.FromContext(ctx)
	ctx, log = logger.WithTenantID(ctx, log, scope.TenantID.String())
	ctx, log = logger.WithOrganizationID(ctx, log, scope.OrganizationID.String())
	if scope.UserID != uuid.Nil {
		ctx, _ = logger.WithUserID(ctx, log, scope.UserID.String())
	}
	return ctx
}
