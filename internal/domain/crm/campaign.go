package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CampaignStatus represents the lifecycle of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Campaign groups leads around a marketing or sales effort
type Campaign struct {
	shared.ScopedEntity
	Name        string
	Description string
	Status      CampaignStatus
	Budget      *decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
	ProductIDs  []uuid.UUID
}

// CampaignInput carries the editable campaign fields
type CampaignInput struct {
	Name        string
	Description string
	Budget      *decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
}

// NewCampaign creates a draft campaign
func NewCampaign(scope shared.Scope, in CampaignInput) (*Campaign, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	c := &Campaign{
		ScopedEntity: shared.NewScopedEntity(scope),
		Status:       CampaignStatusDraft,
		ProductIDs:   make([]uuid.UUID, 0),
	}
	if err := c.Update(in); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the editable fields
func (c *Campaign) Update(in CampaignInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_CAMPAIGN_NAME", "Campaign name is required")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_CAMPAIGN_NAME", "Campaign name cannot exceed 200 characters")
	}
	if in.Budget != nil && in.Budget.IsNegative() {
		return shared.NewDomainError("INVALID_CAMPAIGN_BUDGET", "Budget cannot be negative")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return shared.NewDomainError("INVALID_CAMPAIGN_DATES", "End date cannot be before start date")
	}
	c.Name = name
	c.Description = strings.TrimSpace(in.Description)
	c.Budget = in.Budget
	c.StartDate = in.StartDate
	c.EndDate = in.EndDate
	c.Touch()
	return nil
}

// Activate starts or resumes the campaign
func (c *Campaign) Activate() error {
	if c.Status == CampaignStatusCompleted {
		return shared.ErrInvalidState.WithDetails("campaign is completed")
	}
	if c.Status == CampaignStatusActive {
		return shared.ErrInvalidState.WithDetails("campaign is already active")
	}
	c.Status = CampaignStatusActive
	c.Touch()
	return nil
}

// Pause pauses an active campaign
func (c *Campaign) Pause() error {
	if c.Status != CampaignStatusActive {
		return shared.ErrInvalidState.WithDetails("only active campaigns can be paused")
	}
	c.Status = CampaignStatusPaused
	c.Touch()
	return nil
}

// Complete closes the campaign
func (c *Campaign) Complete() error {
	if c.Status == CampaignStatusCompleted {
		return shared.ErrInvalidState.WithDetails("campaign is already completed")
	}
	c.Status = CampaignStatusCompleted
	c.Touch()
	return nil
}

// IsRunningAt reports whether the campaign is active and inside its date window
func (c *Campaign) IsRunningAt(t time.Time) bool {
	if c.Status != CampaignStatusActive {
		return false
	}
	if c.StartDate != nil && t.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && t.After(*c.EndDate) {
		return false
	}
	return true
}

// SetProducts replaces the product association, dropping duplicates
func (c *Campaign) SetProducts(ids []uuid.UUID) {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	c.ProductIDs = out
	c.Touch()
}

// Product is something a campaign can promote
type Product struct {
	shared.ScopedEntity
	Name   string
	SKU    string
	Price  decimal.Decimal
	Active bool
}

// NewProduct creates an active product
func NewProduct(scope shared.Scope, name, sku string, price decimal.Decimal) (*Product, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name is required")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRODUCT_PRICE", "Price cannot be negative")
	}
	return &Product{
		ScopedEntity: shared.NewScopedEntity(scope),
		Name:         name,
		SKU:          strings.ToUpper(strings.TrimSpace(sku)),
		Price:        price,
		Active:       true,
	}, nil
}
