package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/mar-ia/crm/internal/application/crm"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// AdminBulkDeleteRequest is the API-key bulk delete body
type AdminBulkDeleteRequest struct {
	crmapp.ScopeRef
	LeadIDs []uuid.UUID `json:"leadIds" binding:"required,min=1"`
}

// LeadHandler serves the lead pipeline
type LeadHandler struct {
	BaseHandler
	leadService *crmapp.LeadService
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leadService *crmapp.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

// Board godoc
// @ID           getLeadBoard
// @Summary      Lead board
// @Description  Returns every lead of the active organization keyed by status. An empty organization yields an empty object. tenantId and organizationId are optional and must match the token.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body crmapp.BoardRequest false "Scope check"
// @Success      200 {object} dto.Response{data=map[string][]crmapp.LeadResponse}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /leads/get [post]
func (h *LeadHandler) Board(c *gin.Context) {
	var req crmapp.BoardRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	board, err := h.leadService.Board(c.Request.Context(), scope)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, board)
}

// List godoc
// @ID           listLeads
// @Summary      List leads
// @Tags         leads
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Param        orderBy query string false "Order by" Enums(created_at, updated_at, score, last_name, company, status)
// @Param        orderDir query string false "Direction" Enums(asc, desc)
// @Param        search query string false "Matches name, email, phone or company"
// @Param        status query string false "Lead status"
// @Success      200 {object} dto.Response{data=[]crmapp.LeadResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.leadService.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Get godoc
// @ID           getLead
// @Summary      Get lead
// @Tags         leads
// @Produce      json
// @Param        id path string true "Lead ID" format(uuid)
// @Success      200 {object} dto.Response{data=crmapp.LeadResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /leads/{id} [get]
func (h *LeadHandler) Get(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	lead, err := h.leadService.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lead)
}

// Create godoc
// @ID           createLead
// @Summary      Create lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body crmapp.CreateLeadRequest true "Lead"
// @Success      201 {object} dto.Response{data=crmapp.LeadResponse}
// @Failure      400 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var req crmapp.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	lead, err := h.leadService.Create(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, lead)
}

// AdminCreate godoc
// @ID           adminCreateLead
// @Summary      Create lead (server-to-server)
// @Description  Creates a lead in the organization the API key is pinned to. Requires the leads:write scope.
// @Tags         leads-admin
// @Accept       json
// @Produce      json
// @Param        request body crmapp.CreateLeadRequest true "Lead"
// @Success      201 {object} dto.Response{data=crmapp.LeadResponse}
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      429 {object} dto.Response
// @Security     APIKeyAuth
// @Router       /leads/admin/create [post]
func (h *LeadHandler) AdminCreate(c *gin.Context) {
	var req crmapp.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	lead, err := h.leadService.Create(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, lead)
}

// Update godoc
// @ID           updateLead
// @Summary      Update lead
// @Description  Partial update. Moving a lead to converted goes through /leads/convert.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id path string true "Lead ID" format(uuid)
// @Param        request body crmapp.UpdateLeadRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=crmapp.LeadResponse}
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /leads/{id} [put]
func (h *LeadHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.UpdateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	lead, err := h.leadService.Update(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lead)
}

// Delete godoc
// @ID           deleteLead
// @Summary      Delete lead
// @Tags         leads
// @Produce      json
// @Param        id path string true "Lead ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /leads/{id} [delete]
func (h *LeadHandler) Delete(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.leadService.Delete(c.Request.Context(), scope, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id})
}

// BulkDelete godoc
// @ID           bulkDeleteLeads
// @Summary      Bulk delete leads
// @Description  Deletes each lead independently and reports per-item results
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body crmapp.BulkDeleteRequest true "Leads"
// @Success      200 {object} dto.Response{data=bulk.Result}
// @Security     BearerAuth
// @Router       /leads/bulk-delete [post]
func (h *LeadHandler) BulkDelete(c *gin.Context) {
	var req crmapp.BulkDeleteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	result, err := h.leadService.BulkDelete(c.Request.Context(), scope, req.IDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AdminBulkDelete godoc
// @ID           adminBulkDeleteLeads
// @Summary      Bulk delete leads (server-to-server)
// @Description  Requires the leads:delete scope. tenantId and organizationId, when sent, must match the key.
// @Tags         leads-admin
// @Accept       json
// @Produce      json
// @Param        request body AdminBulkDeleteRequest true "Leads"
// @Success      200 {object} dto.Response{data=bulk.Result}
// @Failure      403 {object} dto.Response
// @Failure      429 {object} dto.Response
// @Security     APIKeyAuth
// @Router       /leads/admin/bulk-delete [delete]
func (h *LeadHandler) AdminBulkDelete(c *gin.Context) {
	var req AdminBulkDeleteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	result, err := h.leadService.BulkDelete(c.Request.Context(), scope, req.LeadIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkUpdate godoc
// @ID           bulkUpdateLeads
// @Summary      Bulk update leads
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body crmapp.BulkUpdateRequest true "Leads and patch"
// @Success      200 {object} dto.Response{data=bulk.Result}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /leads/bulk-update [post]
func (h *LeadHandler) BulkUpdate(c *gin.Context) {
	var req crmapp.BulkUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	result, err := h.leadService.BulkUpdate(c.Request.Context(), scope, req.IDs, req.Updates)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkAssignCampaign godoc
// @ID           bulkAssignCampaign
// @Summary      Bulk assign campaign
// @Description  The campaign is checked once before any lead changes. A null campaignId unlinks the leads.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body crmapp.BulkAssignCampaignRequest true "Leads and campaign"
// @Success      200 {object} dto.Response{data=bulk.Result}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /leads/bulk-assign-campaign [post]
func (h *LeadHandler) BulkAssignCampaign(c *gin.Context) {
	var req crmapp.BulkAssignCampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	result, err := h.leadService.BulkAssignCampaign(c.Request.Context(), scope, req.IDs, req.CampaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Convert godoc
// @ID           convertLead
// @Summary      Convert lead
// @Description  Marks the lead converted. With createClientRecord the client is created in the same transaction.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body crmapp.ConvertLeadRequest true "Conversion"
// @Success      200 {object} dto.Response{data=crmapp.ConvertResult}
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /leads/convert [post]
func (h *LeadHandler) Convert(c *gin.Context) {
	var req crmapp.ConvertLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	result, err := h.leadService.Convert(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ImportLeadsForm is the multipart form of a CSV upload
type ImportLeadsForm struct {
	CampaignID string `form:"campaignId"`
	DryRun     bool   `form:"dryRun"`
}

// Import godoc
// @ID           importLeads
// @Summary      Import leads from CSV
// @Description  Creates a lead per valid row with source "import". Headers are matched case and accent insensitively and accept Spanish names (nombre, apellidos, correo, teléfono, empresa, prioridad, puntuación, notas). Invalid rows are reported and skipped. With dryRun nothing is saved.
// @Tags         leads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file, comma or semicolon separated"
// @Param        campaignId formData string false "Campaign for every imported lead" format(uuid)
// @Param        dryRun formData bool false "Validate only"
// @Success      200 {object} dto.Response{data=crmapp.LeadImportResult}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /leads/import [post]
func (h *LeadHandler) Import(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var form ImportLeadsForm
	if err := c.ShouldBind(&form); err != nil {
		h.BadRequest(c, "Invalid import form: "+err.Error())
		return
	}
	var campaignID *uuid.UUID
	if form.CampaignID != "" {
		id, err := uuid.Parse(form.CampaignID)
		if err != nil {
			h.BadRequest(c, "Invalid campaignId")
			return
		}
		campaignID = &id
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the file field")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	result, err := h.leadService.Import(c.Request.Context(), scope, file, crmapp.ImportLeadsOptions{
		CampaignID: campaignID,
		DryRun:     form.DryRun,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
