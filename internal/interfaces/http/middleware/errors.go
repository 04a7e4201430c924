package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// abortWithCode stops the chain with the standard error envelope
func abortWithCode(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.StatusForCode(code), dto.NewErrorResponse(code, message, nil))
}

// abortWithError maps a domain error onto the envelope; anything else is a 500
func abortWithError(c *gin.Context, err error) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		c.AbortWithStatusJSON(dto.StatusForCode(de.Code), dto.NewErrorResponse(de.Code, de.Message, nilIfEmpty(de.Details)))
		return
	}
	_ = c.Error(err)
	abortWithCode(c, dto.CodeInternal, "Error interno del servidor")
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
