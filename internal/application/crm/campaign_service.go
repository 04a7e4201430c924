package crm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"go.uber.org/zap"
)

// CampaignService handles campaigns and their product links
type CampaignService struct {
	campaigns crm.CampaignRepository
	products  crm.ProductRepository
	logger    *zap.Logger
}

// NewCampaignService creates a new campaign service
func NewCampaignService(campaigns crm.CampaignRepository, products crm.ProductRepository, logger *zap.Logger) *CampaignService {
	return &CampaignService{campaigns: campaigns, products: products, logger: logger}
}

// List returns a page of campaigns
func (s *CampaignService) List(ctx context.Context, scope shared.Scope, filter shared.Filter) (*shared.Paginated[CampaignResponse], error) {
	filter = filter.Normalize()
	campaigns, total, err := s.campaigns.FindAll(ctx, scope.TenantID, scope.OrganizationID, filter)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	items := make([]CampaignResponse, len(campaigns))
	for i := range campaigns {
		items[i] = ToCampaignResponse(&campaigns[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one campaign
func (s *CampaignService) Get(ctx context.Context, scope shared.Scope, id uuid.UUID) (*CampaignResponse, error) {
	c, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	resp := ToCampaignResponse(c)
	return &resp, nil
}

// Create adds a draft campaign
func (s *CampaignService) Create(ctx context.Context, scope shared.Scope, req CampaignRequest) (*CampaignResponse, error) {
	c, err := crm.NewCampaign(scope, req.input())
	if err != nil {
		return nil, err
	}
	if err := s.campaigns.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save campaign: %w", err)
	}
	s.logger.Info("Campaign created", zap.String("campaign_id", c.ID.String()))
	resp := ToCampaignResponse(c)
	return &resp, nil
}

// Update replaces the editable fields
func (s *CampaignService) Update(ctx context.Context, scope shared.Scope, id uuid.UUID, req CampaignRequest) (*CampaignResponse, error) {
	return s.mutate(ctx, scope, id, func(c *crm.Campaign) error { return c.Update(req.input()) })
}

// Delete removes a campaign; its leads are detached by the store
func (s *CampaignService) Delete(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	if err := s.campaigns.Delete(ctx, scope.TenantID, scope.OrganizationID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("delete campaign: %w", err)
	}
	s.logger.Info("Campaign deleted", zap.String("campaign_id", id.String()))
	return nil
}

// SetProducts replaces the campaign's products. Every ID must name a product
// of the same scope.
func (s *CampaignService) SetProducts(ctx context.Context, scope shared.Scope, id uuid.UUID, productIDs []uuid.UUID) (*CampaignResponse, error) {
	if len(productIDs) > 0 {
		found, err := s.products.FindByIDs(ctx, scope.TenantID, scope.OrganizationID, productIDs)
		if err != nil {
			return nil, fmt.Errorf("find products: %w", err)
		}
		known := make(map[uuid.UUID]struct{}, len(found))
		for _, p := range found {
			known[p.ID] = struct{}{}
		}
		for _, pid := range productIDs {
			if _, ok := known[pid]; !ok {
				return nil, shared.ErrInvalidInput.WithDetails("unknown product " + pid.String())
			}
		}
	}
	return s.mutate(ctx, scope, id, func(c *crm.Campaign) error {
		c.SetProducts(productIDs)
		return nil
	})
}

// Activate moves a campaign to active
func (s *CampaignService) Activate(ctx context.Context, scope shared.Scope, id uuid.UUID) (*CampaignResponse, error) {
	return s.mutate(ctx, scope, id, (*crm.Campaign).Activate)
}

// Pause moves an active campaign to paused
func (s *CampaignService) Pause(ctx context.Context, scope shared.Scope, id uuid.UUID) (*CampaignResponse, error) {
	return s.mutate(ctx, scope, id, (*crm.Campaign).Pause)
}

// Complete closes a campaign
func (s *CampaignService) Complete(ctx context.Context, scope shared.Scope, id uuid.UUID) (*CampaignResponse, error) {
	return s.mutate(ctx, scope, id, (*crm.Campaign).Complete)
}

func (s *CampaignService) mutate(ctx context.Context, scope shared.Scope, id uuid.UUID, fn func(*crm.Campaign) error) (*CampaignResponse, error) {
	c, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.campaigns.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save campaign: %w", err)
	}
	resp := ToCampaignResponse(c)
	return &resp, nil
}

func (s *CampaignService) find(ctx context.Context, scope shared.Scope, id uuid.UUID) (*crm.Campaign, error) {
	c, err := s.campaigns.FindByID(ctx, scope.TenantID, scope.OrganizationID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

// ProductService handles the product catalog of an organization
type ProductService struct {
	products crm.ProductRepository
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(products crm.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{products: products, logger: logger}
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, scope shared.Scope, filter shared.Filter) (*shared.Paginated[ProductResponse], error) {
	filter = filter.Normalize()
	products, total, err := s.products.FindAll(ctx, scope.TenantID, scope.OrganizationID, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Create adds an active product
func (s *ProductService) Create(ctx context.Context, scope shared.Scope, req CreateProductRequest) (*ProductResponse, error) {
	p, err := crm.NewProduct(scope, req.Name, req.SKU, req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	resp := ToProductResponse(p)
	return &resp, nil
}
