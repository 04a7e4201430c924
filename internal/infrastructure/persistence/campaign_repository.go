package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var campaignFilterColumns = map[string]string{
	"status": "status",
}

// GormCampaignRepository implements CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// FindByID finds a campaign and its product links inside the scope
func (r *GormCampaignRepository) FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*crm.Campaign, error) {
	var model models.CampaignModel
	if err := scoped(r.db.WithContext(ctx), tenantID, organizationID).
		Preload("Products").
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists campaigns in the scope
func (r *GormCampaignRepository) FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]crm.Campaign, int64, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.CampaignModel{}), tenantID, organizationID)

	if filter.Search != "" {
		kw := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", kw, kw)
	}
	query = applyColumnFilters(query, filter.Filters, campaignFilterColumns)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CampaignModel
	if err := paginate(query, filter, CampaignSortFields).Preload("Products").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	campaigns := make([]crm.Campaign, len(rows))
	for i := range rows {
		campaigns[i] = *rows[i].ToDomain()
	}
	return campaigns, total, nil
}

// ExistsByID reports whether a campaign exists inside the scope
func (r *GormCampaignRepository) ExistsByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (bool, error) {
	var count int64
	if err := scoped(r.db.WithContext(ctx).Model(&models.CampaignModel{}), tenantID, organizationID).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save upserts the campaign and replaces its product links
func (r *GormCampaignRepository) Save(ctx context.Context, campaign *crm.Campaign) error {
	var model models.CampaignModel
	model.FromDomain(campaign)

	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Products").Save(&model).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", model.ID).Delete(&models.CampaignProductModel{}).Error; err != nil {
			return err
		}
		if len(model.Products) == 0 {
			return nil
		}
		return tx.Create(&model.Products).Error
	}))
}

// Delete removes a campaign, its product links, and detaches its leads
func (r *GormCampaignRepository) Delete(ctx context.Context, tenantID, organizationID, id uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := scoped(tx, tenantID, organizationID).Where("id = ?", id).Delete(&models.CampaignModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&models.CampaignProductModel{}).Error; err != nil {
			return err
		}
		return scoped(tx.Model(&models.LeadModel{}), tenantID, organizationID).
			Where("campaign_id = ?", id).
			UpdateColumn("campaign_id", nil).Error
	}))
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByIDs returns the products of ids that exist inside the scope
func (r *GormProductRepository) FindByIDs(ctx context.Context, tenantID, organizationID uuid.UUID, ids []uuid.UUID) ([]crm.Product, error) {
	if len(ids) == 0 {
		return []crm.Product{}, nil
	}
	var rows []models.ProductModel
	if err := scoped(r.db.WithContext(ctx), tenantID, organizationID).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]crm.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// FindAll lists products in the scope
func (r *GormProductRepository) FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]crm.Product, int64, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.ProductModel{}), tenantID, organizationID)
	if filter.Search != "" {
		kw := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := paginate(query, filter, ProductSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	products := make([]crm.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *crm.Product) error {
	var model models.ProductModel
	model.FromDomain(product)
	return translateError(r.db.WithContext(ctx).Save(&model).Error)
}
