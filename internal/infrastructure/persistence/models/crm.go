package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/shopspring/decimal"
)

// LeadModel is the persistence model for the Lead entity.
type LeadModel struct {
	ScopedModel
	FirstName   string           `gorm:"type:varchar(100)"`
	LastName    string           `gorm:"type:varchar(100)"`
	Email       string           `gorm:"type:varchar(200);index"`
	Phone       string           `gorm:"type:varchar(50)"`
	Company     string           `gorm:"type:varchar(200)"`
	Status      crm.LeadStatus   `gorm:"type:varchar(20);not null;default:'new';index"`
	Priority    crm.LeadPriority `gorm:"type:varchar(20);not null;default:'medium'"`
	Source      crm.LeadSource   `gorm:"type:varchar(20);not null;default:'manual'"`
	Score       int              `gorm:"not null;default:0"`
	CampaignID  *uuid.UUID       `gorm:"type:uuid;index"`
	AssignedTo  *uuid.UUID       `gorm:"type:uuid"`
	Notes       string           `gorm:"type:text"`
	ConvertedAt *time.Time
	ClientID    *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (LeadModel) TableName() string {
	return "leads"
}

// ToDomain converts the persistence model to a domain Lead entity.
func (m *LeadModel) ToDomain() *crm.Lead {
	return &crm.Lead{
		ScopedEntity: m.ToScopedEntity(),
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Phone:        m.Phone,
		Company:      m.Company,
		Status:       m.Status,
		Priority:     m.Priority,
		Source:       m.Source,
		Score:        m.Score,
		CampaignID:   m.CampaignID,
		AssignedTo:   m.AssignedTo,
		Notes:        m.Notes,
		ConvertedAt:  m.ConvertedAt,
		ClientID:     m.ClientID,
	}
}

// FromDomain populates the persistence model from a domain Lead entity.
func (m *LeadModel) FromDomain(l *crm.Lead) {
	m.FromDomainScopedEntity(l.ScopedEntity)
	m.FirstName = l.FirstName
	m.LastName = l.LastName
	m.Email = l.Email
	m.Phone = l.Phone
	m.Company = l.Company
	m.Status = l.Status
	m.Priority = l.Priority
	m.Source = l.Source
	m.Score = l.Score
	m.CampaignID = l.CampaignID
	m.AssignedTo = l.AssignedTo
	m.Notes = l.Notes
	m.ConvertedAt = l.ConvertedAt
	m.ClientID = l.ClientID
}

// LeadModelFromDomain creates a new persistence model from a domain Lead.
func LeadModelFromDomain(l *crm.Lead) *LeadModel {
	m := &LeadModel{}
	m.FromDomain(l)
	return m
}

// ClientModel is the persistence model for the Client entity. Payments live
// in client_payments.
type ClientModel struct {
	ScopedModel
	Name          string               `gorm:"type:varchar(200);not null"`
	Email         string               `gorm:"type:varchar(200);index"`
	Phone         string               `gorm:"type:varchar(50)"`
	Company       string               `gorm:"type:varchar(200)"`
	LeadID        *uuid.UUID           `gorm:"type:uuid;index"`
	Status        crm.ClientStatus     `gorm:"type:varchar(20);not null;default:'active'"`
	LifetimeValue decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	Tags          []string             `gorm:"type:text;serializer:json"`
	Payments      []ClientPaymentModel `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *crm.Client {
	payments := make([]crm.Payment, len(m.Payments))
	for i := range m.Payments {
		payments[i] = m.Payments[i].ToDomain()
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return &crm.Client{
		ScopedEntity:  m.ToScopedEntity(),
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		Company:       m.Company,
		LeadID:        m.LeadID,
		Status:        m.Status,
		LifetimeValue: m.LifetimeValue,
		Payments:      payments,
		Tags:          tags,
	}
}

// FromDomain populates the persistence model from a domain Client entity,
// payments included.
func (m *ClientModel) FromDomain(c *crm.Client) {
	m.FromDomainScopedEntity(c.ScopedEntity)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Company = c.Company
	m.LeadID = c.LeadID
	m.Status = c.Status
	m.LifetimeValue = c.LifetimeValue
	m.Tags = c.Tags
	m.Payments = make([]ClientPaymentModel, len(c.Payments))
	for i, p := range c.Payments {
		m.Payments[i] = ClientPaymentModel{
			ID:        p.ID,
			ClientID:  c.ID,
			TenantID:  c.TenantID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			PaidAt:    p.PaidAt,
			Reference: p.Reference,
		}
	}
}

// ClientPaymentModel is one row of a client's payment ledger.
type ClientPaymentModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClientID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
	PaidAt    time.Time       `gorm:"not null"`
	Reference string          `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (ClientPaymentModel) TableName() string {
	return "client_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *ClientPaymentModel) ToDomain() crm.Payment {
	return crm.Payment{
		ID:        m.ID,
		Amount:    m.Amount,
		Currency:  m.Currency,
		PaidAt:    m.PaidAt,
		Reference: m.Reference,
	}
}

// CampaignModel is the persistence model for the Campaign entity. Product
// links live in campaign_products.
type CampaignModel struct {
	ScopedModel
	Name        string             `gorm:"type:varchar(200);not null"`
	Description string             `gorm:"type:text"`
	Status      crm.CampaignStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	Budget      *decimal.Decimal   `gorm:"type:decimal(18,2)"`
	StartDate   *time.Time
	EndDate     *time.Time
	Products    []CampaignProductModel `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign entity.
func (m *CampaignModel) ToDomain() *crm.Campaign {
	ids := make([]uuid.UUID, len(m.Products))
	for i, p := range m.Products {
		ids[i] = p.ProductID
	}
	return &crm.Campaign{
		ScopedEntity: m.ToScopedEntity(),
		Name:         m.Name,
		Description:  m.Description,
		Status:       m.Status,
		Budget:       m.Budget,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		ProductIDs:   ids,
	}
}

// FromDomain populates the persistence model from a domain Campaign entity.
func (m *CampaignModel) FromDomain(c *crm.Campaign) {
	m.FromDomainScopedEntity(c.ScopedEntity)
	m.Name = c.Name
	m.Description = c.Description
	m.Status = c.Status
	m.Budget = c.Budget
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.Products = make([]CampaignProductModel, len(c.ProductIDs))
	for i, id := range c.ProductIDs {
		m.Products[i] = CampaignProductModel{CampaignID: c.ID, ProductID: id}
	}
}

// CampaignProductModel is the campaign/product join row.
type CampaignProductModel struct {
	CampaignID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (CampaignProductModel) TableName() string {
	return "campaign_products"
}

// ProductModel is the persistence model for the Product entity.
type ProductModel struct {
	ScopedModel
	Name   string          `gorm:"type:varchar(200);not null"`
	SKU    string          `gorm:"type:varchar(64)"`
	Price  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Active bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *crm.Product {
	return &crm.Product{
		ScopedEntity: m.ToScopedEntity(),
		Name:         m.Name,
		SKU:          m.SKU,
		Price:        m.Price,
		Active:       m.Active,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *crm.Product) {
	m.FromDomainScopedEntity(p.ScopedEntity)
	m.Name = p.Name
	m.SKU = p.SKU
	m.Price = p.Price
	m.Active = p.Active
}

// All lists every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&TenantModel{},
		&OrganizationModel{},
		&UserModel{},
		&MembershipModel{},
		&APIKeyModel{},
		&CampaignModel{},
		&CampaignProductModel{},
		&ProductModel{},
		&LeadModel{},
		&ClientModel{},
		&ClientPaymentModel{},
		&OutboxEntryModel{},
	}
}
