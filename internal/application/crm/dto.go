package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/shopspring/decimal"
)

// ScopeRef is the optional tenant/organization pair a request body may name.
// It is only ever compared against the trusted scope, never used to stamp.
type ScopeRef struct {
	TenantID       *uuid.UUID `json:"tenantId"`
	OrganizationID *uuid.UUID `json:"organizationId"`
}

// CreateLeadRequest represents a request to create a lead
type CreateLeadRequest struct {
	ScopeRef
	FirstName  string     `json:"firstName" binding:"max=100"`
	LastName   string     `json:"lastName" binding:"max=100"`
	Email      string     `json:"email" binding:"omitempty,email,max=254"`
	Phone      string     `json:"phone" binding:"max=50"`
	Company    string     `json:"company" binding:"max=200"`
	Priority   string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Source     string     `json:"source" binding:"omitempty,oneof=manual import web referral campaign api"`
	Score      int        `json:"score" binding:"min=0,max=100"`
	Notes      string     `json:"notes" binding:"max=5000"`
	CampaignID *uuid.UUID `json:"campaignId"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
}

// UpdateLeadRequest represents a partial lead update
type UpdateLeadRequest struct {
	ScopeRef
	FirstName  *string    `json:"firstName" binding:"omitempty,max=100"`
	LastName   *string    `json:"lastName" binding:"omitempty,max=100"`
	Email      *string    `json:"email" binding:"omitempty,max=254"`
	Phone      *string    `json:"phone" binding:"omitempty,max=50"`
	Company    *string    `json:"company" binding:"omitempty,max=200"`
	Status     *string    `json:"status" binding:"omitempty,lead_status"`
	Priority   *string    `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Source     *string    `json:"source" binding:"omitempty,oneof=manual import web referral campaign api"`
	Score      *int       `json:"score" binding:"omitempty,min=0,max=100"`
	Notes      *string    `json:"notes" binding:"omitempty,max=5000"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
	CampaignID *uuid.UUID `json:"campaignId"`
}

// Patch converts the request into a domain patch
func (r UpdateLeadRequest) Patch() crm.LeadPatch {
	p := crm.LeadPatch{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		Company:    r.Company,
		Score:      r.Score,
		Notes:      r.Notes,
		AssignedTo: r.AssignedTo,
	}
	if r.Status != nil {
		s := crm.LeadStatus(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := crm.LeadPriority(*r.Priority)
		p.Priority = &pr
	}
	if r.Source != nil {
		src := crm.LeadSource(*r.Source)
		p.Source = &src
	}
	return p
}

// BoardRequest is the body of POST /leads/get
type BoardRequest struct {
	ScopeRef
}

// BulkDeleteRequest lists the leads to delete
type BulkDeleteRequest struct {
	ScopeRef
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// BulkUpdateRequest applies one patch to many leads
type BulkUpdateRequest struct {
	ScopeRef
	IDs     []uuid.UUID       `json:"ids" binding:"required,min=1"`
	Updates UpdateLeadRequest `json:"updates"`
}

// BulkAssignCampaignRequest links many leads to a campaign; a null
// campaignId unlinks them
type BulkAssignCampaignRequest struct {
	ScopeRef
	IDs        []uuid.UUID `json:"ids" binding:"required,min=1"`
	CampaignID *uuid.UUID  `json:"campaignId"`
}

// ConvertLeadRequest converts a lead, optionally creating a client
type ConvertLeadRequest struct {
	ScopeRef
	LeadID             uuid.UUID `json:"leadId" binding:"required"`
	CreateClientRecord bool      `json:"createClientRecord"`
	ClientName         string    `json:"clientName" binding:"max=200"`
	Tags               []string  `json:"tags" binding:"max=20,dive,max=50"`
}

// LeadResponse represents a lead in API responses
type LeadResponse struct {
	ID             uuid.UUID  `json:"id"`
	TenantID       uuid.UUID  `json:"tenantId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	FullName       string     `json:"fullName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Company        string     `json:"company"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	Source         string     `json:"source"`
	Score          int        `json:"score"`
	CampaignID     *uuid.UUID `json:"campaignId"`
	AssignedTo     *uuid.UUID `json:"assignedTo"`
	Notes          string     `json:"notes"`
	ConvertedAt    *time.Time `json:"convertedAt,omitempty"`
	ClientID       *uuid.UUID `json:"clientId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ToLeadResponse converts a domain lead to a response
func ToLeadResponse(l *crm.Lead) LeadResponse {
	return LeadResponse{
		ID:             l.ID,
		TenantID:       l.TenantID,
		OrganizationID: l.OrganizationID,
		FirstName:      l.FirstName,
		LastName:       l.LastName,
		FullName:       l.FullName(),
		Email:          l.Email,
		Phone:          l.Phone,
		Company:        l.Company,
		Status:         string(l.Status),
		Priority:       string(l.Priority),
		Source:         string(l.Source),
		Score:          l.Score,
		CampaignID:     l.CampaignID,
		AssignedTo:     l.AssignedTo,
		Notes:          l.Notes,
		ConvertedAt:    l.ConvertedAt,
		ClientID:       l.ClientID,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

// ConvertResult is returned by a lead conversion
type ConvertResult struct {
	Lead     LeadResponse `json:"lead"`
	ClientID *uuid.UUID   `json:"clientId,omitempty"`
}

// CreateClientRequest represents a request to create a client
type CreateClientRequest struct {
	ScopeRef
	Name    string   `json:"name" binding:"required,max=200"`
	Email   string   `json:"email" binding:"omitempty,email,max=254"`
	Phone   string   `json:"phone" binding:"max=50"`
	Company string   `json:"company" binding:"max=200"`
	Tags    []string `json:"tags" binding:"max=20,dive,max=50"`
}

// UpdateClientRequest represents a partial client update
type UpdateClientRequest struct {
	ScopeRef
	Name    *string   `json:"name" binding:"omitempty,max=200"`
	Email   *string   `json:"email" binding:"omitempty,max=254"`
	Phone   *string   `json:"phone" binding:"omitempty,max=50"`
	Company *string   `json:"company" binding:"omitempty,max=200"`
	Status  *string   `json:"status" binding:"omitempty,oneof=active inactive churned"`
	Tags    *[]string `json:"tags" binding:"omitempty,max=20"`
}

// Patch converts the request into a domain patch
func (r UpdateClientRequest) Patch() crm.ClientPatch {
	p := crm.ClientPatch{Name: r.Name, Email: r.Email, Phone: r.Phone, Company: r.Company, Tags: r.Tags}
	if r.Status != nil {
		s := crm.ClientStatus(*r.Status)
		p.Status = &s
	}
	return p
}

// RecordPaymentRequest adds a payment to a client's ledger
type RecordPaymentRequest struct {
	ScopeRef
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Currency  string          `json:"currency" binding:"omitempty,len=3"`
	Reference string          `json:"reference" binding:"max=200"`
	PaidAt    *time.Time      `json:"paidAt"`
}

// CommunicationRequest records a communication with a client
type CommunicationRequest struct {
	ScopeRef
	Channel    string            `json:"channel" binding:"required,oneof=call email whatsapp"`
	Direction  string            `json:"direction" binding:"omitempty,oneof=inbound outbound"`
	Summary    string            `json:"summary" binding:"max=5000"`
	Transcript string            `json:"transcript" binding:"max=200000"`
	Metadata   map[string]string `json:"metadata"`
}

// ProfileRequest replaces a client's AI profile
type ProfileRequest struct {
	ScopeRef
	Personality   string   `json:"personality" binding:"max=2000"`
	Preferences   []string `json:"preferences" binding:"max=50"`
	BuyingSignals []string `json:"buyingSignals" binding:"max=50"`
	Sentiment     string   `json:"sentiment" binding:"omitempty,oneof=positive neutral negative mixed"`
	Score         int      `json:"score" binding:"min=0,max=100"`
}

// AttachmentUploadRequest asks for a presigned upload URL
type AttachmentUploadRequest struct {
	ScopeRef
	FileName    string `json:"fileName" binding:"required,max=255"`
	ContentType string `json:"contentType" binding:"required,max=100"`
}

// AttachmentURL is a presigned URL for one object
type AttachmentURL struct {
	URL        string    `json:"url"`
	StorageKey string    `json:"storageKey"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// PaymentResponse represents one ledger entry
type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    time.Time       `json:"paidAt"`
	Reference string          `json:"reference,omitempty"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID             uuid.UUID         `json:"id"`
	TenantID       uuid.UUID         `json:"tenantId"`
	OrganizationID uuid.UUID         `json:"organizationId"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone"`
	Company        string            `json:"company"`
	LeadID         *uuid.UUID        `json:"leadId,omitempty"`
	Status         string            `json:"status"`
	LifetimeValue  decimal.Decimal   `json:"lifetimeValue"`
	Payments       []PaymentResponse `json:"payments"`
	Tags           []string          `json:"tags"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// ToClientResponse converts a domain client to a response
func ToClientResponse(c *crm.Client) ClientResponse {
	payments := make([]PaymentResponse, len(c.Payments))
	for i, p := range c.Payments {
		payments[i] = PaymentResponse{ID: p.ID, Amount: p.Amount, Currency: p.Currency, PaidAt: p.PaidAt, Reference: p.Reference}
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return ClientResponse{
		ID:             c.ID,
		TenantID:       c.TenantID,
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Company:        c.Company,
		LeadID:         c.LeadID,
		Status:         string(c.Status),
		LifetimeValue:  c.LifetimeValue,
		Payments:       payments,
		Tags:           tags,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// CampaignRequest creates or replaces a campaign's editable fields
type CampaignRequest struct {
	ScopeRef
	Name        string           `json:"name" binding:"required,max=200"`
	Description string           `json:"description" binding:"max=5000"`
	Budget      *decimal.Decimal `json:"budget"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
}

func (r CampaignRequest) input() crm.CampaignInput {
	return crm.CampaignInput{
		Name:        r.Name,
		Description: r.Description,
		Budget:      r.Budget,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

// SetProductsRequest replaces a campaign's products
type SetProductsRequest struct {
	ScopeRef
	ProductIDs []uuid.UUID `json:"productIds" binding:"max=500"`
}

// CampaignResponse represents a campaign in API responses
type CampaignResponse struct {
	ID             uuid.UUID        `json:"id"`
	TenantID       uuid.UUID        `json:"tenantId"`
	OrganizationID uuid.UUID        `json:"organizationId"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Status         string           `json:"status"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
	StartDate      *time.Time       `json:"startDate,omitempty"`
	EndDate        *time.Time       `json:"endDate,omitempty"`
	ProductIDs     []uuid.UUID      `json:"productIds"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// ToCampaignResponse converts a domain campaign to a response
func ToCampaignResponse(c *crm.Campaign) CampaignResponse {
	ids := c.ProductIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return CampaignResponse{
		ID:             c.ID,
		TenantID:       c.TenantID,
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Description:    c.Description,
		Status:         string(c.Status),
		Budget:         c.Budget,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		ProductIDs:     ids,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	ScopeRef
	Name  string          `json:"name" binding:"required,max=200"`
	SKU   string          `json:"sku" binding:"max=64"`
	Price decimal.Decimal `json:"price"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenantId"`
	OrganizationID uuid.UUID       `json:"organizationId"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	Price          decimal.Decimal `json:"price"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *crm.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		SKU:            p.SKU,
		Price:          p.Price,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
	}
}
