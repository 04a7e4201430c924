package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	crmapp "github.com/mar-ia/crm/internal/application/crm"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// CommunicationsQuery pages the communication history
type CommunicationsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// DownloadQuery names the stored attachment
type DownloadQuery struct {
	Key string `form:"key" binding:"required,max=1024"`
}

// ClientHandler serves clients and their document-side data
type ClientHandler struct {
	BaseHandler
	clientService *crmapp.ClientService
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientService *crmapp.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// List godoc
// @ID           listClients
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Param        search query string false "Matches name, email, phone or company"
// @Param        status query string false "Client status" Enums(active, inactive, churned)
// @Success      200 {object} dto.Response{data=[]crmapp.ClientResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.clientService.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Get godoc
// @ID           getClient
// @Summary      Get client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=crmapp.ClientResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	client, err := h.clientService.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// Create godoc
// @ID           createClient
// @Summary      Create client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body crmapp.CreateClientRequest true "Client"
// @Success      201 {object} dto.Response{data=crmapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req crmapp.CreateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	client, err := h.clientService.Create(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// Update godoc
// @ID           updateClient
// @Summary      Update client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        request body crmapp.UpdateClientRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=crmapp.ClientResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.UpdateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	client, err := h.clientService.Update(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// Delete godoc
// @ID           deleteClient
// @Summary      Delete client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.clientService.Delete(c.Request.Context(), scope, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id})
}

// RecordPayment godoc
// @ID           recordClientPayment
// @Summary      Record payment
// @Description  Adds the amount to the client's lifetime value
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        request body crmapp.RecordPaymentRequest true "Payment"
// @Success      200 {object} dto.Response{data=crmapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id}/payments [post]
func (h *ClientHandler) RecordPayment(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	client, err := h.clientService.RecordPayment(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// GetProfile godoc
// @ID           getClientProfile
// @Summary      Get AI profile
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=crm.AIProfile}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id}/profile [get]
func (h *ClientHandler) GetProfile(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	profile, err := h.clientService.GetProfile(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// SaveProfile godoc
// @ID           saveClientProfile
// @Summary      Replace AI profile
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        request body crmapp.ProfileRequest true "Profile"
// @Success      200 {object} dto.Response{data=crm.AIProfile}
// @Security     BearerAuth
// @Router       /clients/{id}/profile [put]
func (h *ClientHandler) SaveProfile(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.ProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	profile, err := h.clientService.SaveProfile(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// ListCommunications godoc
// @ID           listClientCommunications
// @Summary      Communication history
// @Description  Newest first
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        limit query int false "Maximum records" default(50) maximum(200)
// @Success      200 {object} dto.Response{data=[]crm.CommunicationRecord}
// @Security     BearerAuth
// @Router       /clients/{id}/communications [get]
func (h *ClientHandler) ListCommunications(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var q CommunicationsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	records, err := h.clientService.ListCommunications(c.Request.Context(), scope, id, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// AddCommunication godoc
// @ID           addClientCommunication
// @Summary      Record communication
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        request body crmapp.CommunicationRequest true "Communication"
// @Success      201 {object} dto.Response{data=crm.CommunicationRecord}
// @Security     BearerAuth
// @Router       /clients/{id}/communications [post]
func (h *ClientHandler) AddCommunication(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.CommunicationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	record, err := h.clientService.AddCommunication(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// AttachmentUploadURL godoc
// @ID           clientAttachmentUploadURL
// @Summary      Presigned upload URL
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        request body crmapp.AttachmentUploadRequest true "File"
// @Success      200 {object} dto.Response{data=crmapp.AttachmentURL}
// @Security     BearerAuth
// @Router       /clients/{id}/attachments/upload-url [post]
func (h *ClientHandler) AttachmentUploadURL(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.AttachmentUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scope, ok := h.scopeFor(c, req.ScopeRef)
	if !ok {
		return
	}
	url, err := h.clientService.AttachmentUploadURL(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, url)
}

// AttachmentDownloadURL godoc
// @ID           clientAttachmentDownloadURL
// @Summary      Presigned download URL
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        key query string true "Storage key returned at upload"
// @Success      200 {object} dto.Response{data=crmapp.AttachmentURL}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id}/attachments/download-url [get]
func (h *ClientHandler) AttachmentDownloadURL(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var q DownloadQuery
	if !h.bindQuery(c, &q) {
		return
	}
	url, err := h.clientService.AttachmentDownloadURL(c.Request.Context(), scope, id, q.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, url)
}
