package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appidentity "github.com/mar-ia/crm/internal/application/identity"
)

// OrganizationRequest creates or renames an organization
type OrganizationRequest struct {
	Name        string `json:"name" binding:"required,max=200" example:"Ventas Norte"`
	Description string `json:"description" binding:"max=2000"`
}

// OrganizationHandler serves organization CRUD within the caller's tenant
type OrganizationHandler struct {
	BaseHandler
	orgService *appidentity.OrganizationService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgService *appidentity.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// List godoc
// @ID           listOrganizations
// @Summary      List organizations
// @Tags         organizations
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appidentity.OrganizationInfo}
// @Security     BearerAuth
// @Router       /organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	orgs, err := h.orgService.List(c.Request.Context(), scope)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orgs)
}

// Get godoc
// @ID           getOrganization
// @Summary      Get organization
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Success      200 {object} dto.Response{data=appidentity.OrganizationInfo}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /organizations/{id} [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	org, err := h.orgService.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Create godoc
// @ID           createOrganization
// @Summary      Create organization
// @Description  Creates an organization in the caller's tenant and makes the caller its owner
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        request body OrganizationRequest true "Organization"
// @Success      201 {object} dto.Response{data=appidentity.OrganizationInfo}
// @Security     BearerAuth
// @Router       /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req OrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	org, err := h.orgService.Create(c.Request.Context(), scope, appidentity.OrganizationInput{Name: req.Name, Description: req.Description})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

// Update godoc
// @ID           updateOrganization
// @Summary      Update organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Param        request body OrganizationRequest true "Organization"
// @Success      200 {object} dto.Response{data=appidentity.OrganizationInfo}
// @Security     BearerAuth
// @Router       /organizations/{id} [put]
func (h *OrganizationHandler) Update(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req OrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	org, err := h.orgService.Update(c.Request.Context(), scope, id, appidentity.OrganizationInput{Name: req.Name, Description: req.Description})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Delete godoc
// @ID           deleteOrganization
// @Summary      Delete organization
// @Description  Deletes an empty organization. The active organization and organizations holding leads cannot be deleted.
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /organizations/{id} [delete]
func (h *OrganizationHandler) Delete(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.orgService.Delete(c.Request.Context(), scope, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id})
}

// IssueAPIKeyRequest describes a new server-to-server key
type IssueAPIKeyRequest struct {
	Name               string   `json:"name" binding:"required,max=100" example:"web form"`
	Scopes             []string `json:"scopes" binding:"required,min=1,dive,oneof=leads:write leads:delete"`
	RateLimitPerMinute int      `json:"rateLimitPerMinute" binding:"min=0,max=6000" example:"60"`
	TTLHours           int      `json:"ttlHours" binding:"min=0,max=87600"`
}

// APIKeyHandler issues and revokes API keys
type APIKeyHandler struct {
	BaseHandler
	keyService *appidentity.APIKeyService
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(keyService *appidentity.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keyService: keyService}
}

// Issue godoc
// @ID           issueAPIKey
// @Summary      Issue API key
// @Description  Creates a key pinned to the active organization. The plaintext key is only returned by this call.
// @Tags         api-keys
// @Accept       json
// @Produce      json
// @Param        request body IssueAPIKeyRequest true "Key"
// @Success      201 {object} dto.Response{data=appidentity.IssuedAPIKey}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /api-keys [post]
func (h *APIKeyHandler) Issue(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req IssueAPIKeyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	key, err := h.keyService.Issue(c.Request.Context(), scope, appidentity.IssueAPIKeyInput{
		Name:               req.Name,
		Scopes:             req.Scopes,
		RateLimitPerMinute: req.RateLimitPerMinute,
		TTL:                time.Duration(req.TTLHours) * time.Hour,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, key)
}

// Revoke godoc
// @ID           revokeAPIKey
// @Summary      Revoke API key
// @Tags         api-keys
// @Produce      json
// @Param        id path string true "Key ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /api-keys/{id} [delete]
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.keyService.Revoke(c.Request.Context(), scope, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id, "revoked": true})
}
