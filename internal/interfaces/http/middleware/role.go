package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// RequireRole allows the request when the scope carries any of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c)
		if !ok {
			abortWithCode(c, dto.CodeUnauthorized, "Autenticación requerida")
			return
		}
		if !scope.HasRole(roles...) {
			abortWithCode(c, dto.CodeForbidden, "Permisos insuficientes")
			return
		}
		c.Next()
	}
}
