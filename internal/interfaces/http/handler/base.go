package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/mar-ia/crm/internal/application/crm"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/auth"
	"github.com/mar-ia/crm/internal/infrastructure/logger"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
	"github.com/mar-ia/crm/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides the response helpers shared by every handler
type BaseHandler struct{}

// Success sends a 200 envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error envelope with the status derived from code
func (h *BaseHandler) Error(c *gin.Context, code, message string, details any) {
	c.JSON(dto.StatusForCode(code), dto.NewErrorResponse(code, message, details))
}

// BadRequest sends a 400 with the BAD_REQUEST code
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.CodeBadRequest, message, nil)
}

// HandleError maps any error returned by a service onto the envelope.
// Unknown errors become a 500 whose details carry the error text.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if pe, ok := integration.AsProviderError(err); ok {
		c.JSON(pe.HTTPStatus(), dto.NewErrorResponse(pe.Kind.Code(), pe.Message, gin.H{
			"provider":       pe.Provider,
			"kind":           pe.Kind,
			"providerStatus": pe.StatusCode,
		}))
		return
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		var details any
		if de.Details != "" {
			details = de.Details
		}
		h.Error(c, de.Code, de.Message, details)
		return
	}

	if auth.IsTokenError(err) {
		h.Error(c, dto.CodeTokenInvalid, "Token inválido", nil)
		return
	}

	logger.FromContext(c.Request.Context()).Error("Unhandled request error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	_ = c.Error(err)
	h.Error(c, dto.CodeInternal, "Error interno del servidor", err.Error())
}

// bindJSON binds and validates the body. On failure it writes the 400 and
// returns false.
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, dto.CodeRequestTooLarge, "El cuerpo de la petición es demasiado grande", nil)
			return false
		}
		if details := middleware.ValidationDetails(err); details != nil {
			h.Error(c, dto.CodeValidation, "Datos de entrada no válidos", details)
			return false
		}
		h.Error(c, dto.CodeValidation, "Cuerpo de la petición no válido", err.Error())
		return false
	}
	return true
}

// bindQuery binds and validates query parameters
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.Error(c, dto.CodeValidation, "Parámetros de consulta no válidos", middleware.ValidationDetails(err))
		return false
	}
	return true
}

// scope returns the trusted scope set by the auth middleware. A handler
// mounted without auth is a wiring bug, answered with 401.
func (h *BaseHandler) scope(c *gin.Context) (shared.Scope, bool) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		h.Error(c, dto.CodeUnauthorized, "Autenticación requerida", nil)
		return shared.Scope{}, false
	}
	return scope, true
}

// scopeFor returns the trusted scope after cross-checking the tenant and
// organization a body names. Absent values pass; differing values are a
// TENANT_MISMATCH.
func (h *BaseHandler) scopeFor(c *gin.Context, ref crmapp.ScopeRef) (shared.Scope, bool) {
	scope, ok := h.scope(c)
	if !ok {
		return scope, false
	}
	if (ref.TenantID != nil && *ref.TenantID != scope.TenantID) ||
		(ref.OrganizationID != nil && *ref.OrganizationID != scope.OrganizationID) {
		logger.FromContext(c.Request.Context()).Warn("Scope mismatch in request body",
			zap.String("path", c.FullPath()))
		h.Error(c, dto.CodeTenantMismatch, "El tenant u organización no coincide con la sesión", nil)
		return shared.Scope{}, false
	}
	return scope, true
}

// parseID reads a UUID path parameter
func (h *BaseHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.Error(c, dto.CodeValidation, "Identificador no válido", param)
		return uuid.Nil, false
	}
	return id, true
}

// listFilter binds the standard list query
func (h *BaseHandler) listFilter(c *gin.Context) (shared.Filter, bool) {
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return shared.Filter{}, false
	}
	return q.Filter(), true
}
