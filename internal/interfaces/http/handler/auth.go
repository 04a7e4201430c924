package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/mar-ia/crm/internal/application/identity"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/mar-ia/crm/internal/interfaces/http/middleware"
)

// LoginRequest holds login credentials. tenantIdentifier is the tenant slug
// or its id.
type LoginRequest struct {
	Email            string `json:"email" binding:"required,email,max=254" example:"ana@acme.com"`
	Password         string `json:"password" binding:"required,max=128" example:"s3cret!"`
	TenantIdentifier string `json:"tenantIdentifier" binding:"required,max=63" example:"acme"`
}

// SwitchOrganizationRequest names the organization to make active
type SwitchOrganizationRequest struct {
	NewOrganizationID uuid.UUID `json:"newOrganizationId" binding:"required"`
}

// SwitchOrganizationResponse carries the re-issued token
type SwitchOrganizationResponse struct {
	NewAuthToken string                       `json:"newAuthToken"`
	ExpiresAt    time.Time                    `json:"expiresAt"`
	Organization appidentity.OrganizationInfo `json:"organization"`
	Roles        []string                     `json:"roles"`
}

// ContextResponse is the resolved identity of the caller
type ContextResponse struct {
	User struct {
		ID          uuid.UUID `json:"id"`
		Email       string    `json:"email"`
		DisplayName string    `json:"displayName"`
	} `json:"user"`
	Tenant struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
		Slug string    `json:"slug"`
		Plan string    `json:"plan"`
	} `json:"tenant"`
	Organization struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	} `json:"organization"`
	Roles []string `json:"roles"`
}

func toContextResponse(rc *identity.RequestContext) ContextResponse {
	var out ContextResponse
	out.User.ID, out.User.Email, out.User.DisplayName = rc.UserID, rc.Email, rc.DisplayName
	out.Tenant.ID, out.Tenant.Name, out.Tenant.Slug, out.Tenant.Plan = rc.TenantID, rc.TenantName, rc.TenantSlug, rc.TenantPlan
	out.Organization.ID, out.Organization.Name = rc.OrganizationID, rc.OrganizationName
	out.Roles = rc.Roles
	return out
}

// AuthHandler handles login, logout, context and organization switch
type AuthHandler struct {
	BaseHandler
	authService *appidentity.AuthService
	cookie      config.CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *appidentity.AuthService, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Login godoc
// @ID           login
// @Summary      Log in
// @Description  Authenticates against one tenant and returns a 24h context token for its first organization. The token is mirrored in an HttpOnly cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} dto.Response{data=appidentity.LoginResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), appidentity.LoginInput{
		Email:            strings.TrimSpace(req.Email),
		Password:         req.Password,
		TenantIdentifier: req.TenantIdentifier,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	h.Success(c, result)
}

// Logout godoc
// @ID           logout
// @Summary      Log out
// @Description  Clears the session cookie and drops the cached context of the caller, if any
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims := middleware.GetClaims(c); claims != nil {
		if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
			h.HandleError(c, err)
			return
		}
	}
	h.clearSessionCookie(c)
	h.Success(c, gin.H{"message": "Sesión cerrada"})
}

// Context godoc
// @ID           getAuthContext
// @Summary      Current context
// @Description  Returns the user, tenant and organization the token resolves to
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=ContextResponse}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/context [get]
func (h *AuthHandler) Context(c *gin.Context) {
	rc := middleware.GetRequestContext(c)
	if rc == nil {
		claims := middleware.GetClaims(c)
		var err error
		if rc, err = h.authService.GetContext(c.Request.Context(), claims); err != nil {
			h.HandleError(c, err)
			return
		}
	}
	h.Success(c, toContextResponse(rc))
}

// SwitchOrganization godoc
// @ID           setActiveOrganization
// @Summary      Switch active organization
// @Description  Re-issues the token for another organization of the same tenant. The tenant never changes.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SwitchOrganizationRequest true "Target organization"
// @Success      200 {object} dto.Response{data=SwitchOrganizationResponse}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /user/set-active-organization [put]
func (h *AuthHandler) SwitchOrganization(c *gin.Context) {
	var req SwitchOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.SwitchOrganization(c.Request.Context(), middleware.GetClaims(c), req.NewOrganizationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	h.Success(c, SwitchOrganizationResponse{
		NewAuthToken: result.Token,
		ExpiresAt:    result.ExpiresAt,
		Organization: result.Organization,
		Roles:        result.Roles,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, token, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, "", -1, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
