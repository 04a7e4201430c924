package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/mar-ia/crm/internal/application/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// CampaignHandler serves campaigns and their lifecycle
type CampaignHandler struct {
	BaseHandler
	campaignService *crmapp.CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignService *crmapp.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// List godoc
// @ID           listCampaigns
// @Summary      List campaigns
// @Tags         campaigns
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Param        status query string false "Status" Enums(draft, active, paused, completed)
// @Success      200 {object} dto.Response{data=[]crmapp.CampaignResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.campaignService.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Get godoc
// @ID           getCampaign
// @Summary      Get campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} dto.Response{data=crmapp.CampaignResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	h.byID(c, h.campaignService.Get)
}

// Create godoc
// @ID           createCampaign
// @Summary      Create campaign
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        request body crmapp.CampaignRequest true "Campaign"
// @Success      201 {object} dto.Response{data=crmapp.CampaignResponse}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req crmapp.CampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	campaign, err := h.campaignService.Create(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, campaign)
}

// Update godoc
// @ID           updateCampaign
// @Summary      Update campaign
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Param        request body crmapp.CampaignRequest true "Campaign"
// @Success      200 {object} dto.Response{data=crmapp.CampaignResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /campaigns/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.CampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	campaign, err := h.campaignService.Update(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// Delete godoc
// @ID           deleteCampaign
// @Summary      Delete campaign
// @Description  Leads linked to the campaign are detached, not deleted
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /campaigns/{id} [delete]
func (h *CampaignHandler) Delete(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.campaignService.Delete(c.Request.Context(), scope, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id})
}

// SetProducts godoc
// @ID           setCampaignProducts
// @Summary      Replace campaign products
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Param        request body crmapp.SetProductsRequest true "Products"
// @Success      200 {object} dto.Response{data=crmapp.CampaignResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /campaigns/{id}/products [put]
func (h *CampaignHandler) SetProducts(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.SetProductsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	campaign, err := h.campaignService.SetProducts(c.Request.Context(), scope, id, req.ProductIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// Activate godoc
// @ID           activateCampaign
// @Summary      Activate campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} dto.Response{data=crmapp.CampaignResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /campaigns/{id}/activate [post]
func (h *CampaignHandler) Activate(c *gin.Context) {
	h.byID(c, h.campaignService.Activate)
}

// Pause godoc
// @ID           pauseCampaign
// @Summary      Pause campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} dto.Response{data=crmapp.CampaignResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /campaigns/{id}/pause [post]
func (h *CampaignHandler) Pause(c *gin.Context) {
	h.byID(c, h.campaignService.Pause)
}

// Complete godoc
// @ID           completeCampaign
// @Summary      Complete campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} dto.Response{data=crmapp.CampaignResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /campaigns/{id}/complete [post]
func (h *CampaignHandler) Complete(c *gin.Context) {
	h.byID(c, h.campaignService.Complete)
}

type campaignOp func(ctx context.Context, scope shared.Scope, id uuid.UUID) (*crmapp.CampaignResponse, error)

func (h *CampaignHandler) byID(c *gin.Context, op campaignOp) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	campaign, err := op(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// ProductHandler serves the product catalog
type ProductHandler struct {
	BaseHandler
	productService *crmapp.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *crmapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List godoc
// @ID           listProducts
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Param        search query string false "Matches name or SKU"
// @Success      200 {object} dto.Response{data=[]crmapp.ProductResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.productService.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Create godoc
// @ID           createProduct
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body crmapp.CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=crmapp.ProductResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req crmapp.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	product, err := h.productService.Create(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}
