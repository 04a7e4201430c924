package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// leadFilterColumns are the Filter.Filters keys accepted for leads
var leadFilterColumns = map[string]string{
	"status":      "status",
	"priority":    "priority",
	"source":      "source",
	"campaign_id": "campaign_id",
	"assigned_to": "assigned_to",
}

// GormLeadRepository implements LeadRepository using GORM
type GormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a new GormLeadRepository
func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// FindByID finds a lead inside the scope
func (r *GormLeadRepository) FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*crm.Lead, error) {
	var model models.LeadModel
	if err := scoped(r.db.WithContext(ctx), tenantID, organizationID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists leads in the scope with search, column filters and paging
func (r *GormLeadRepository) FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]crm.Lead, int64, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.LeadModel{}), tenantID, organizationID)

	if filter.Search != "" {
		kw := likePattern(filter.Search)
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?",
			kw, kw, kw, kw,
		)
	}
	query = applyColumnFilters(query, filter.Filters, leadFilterColumns)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LeadModel
	if err := paginate(query, filter, LeadSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	leads := make([]crm.Lead, len(rows))
	for i := range rows {
		leads[i] = *rows[i].ToDomain()
	}
	return leads, total, nil
}

// FindGroupedByStatus returns every lead in the scope keyed by status. Only
// statuses with at least one lead appear.
func (r *GormLeadRepository) FindGroupedByStatus(ctx context.Context, tenantID, organizationID uuid.UUID) (map[crm.LeadStatus][]crm.Lead, error) {
	var rows []models.LeadModel
	if err := scoped(r.db.WithContext(ctx), tenantID, organizationID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	grouped := make(map[crm.LeadStatus][]crm.Lead)
	for i := range rows {
		lead := rows[i].ToDomain()
		grouped[lead.Status] = append(grouped[lead.Status], *lead)
	}
	return grouped, nil
}

// Save creates or updates a lead
func (r *GormLeadRepository) Save(ctx context.Context, lead *crm.Lead) error {
	return translateError(r.db.WithContext(ctx).Save(models.LeadModelFromDomain(lead)).Error)
}

// Delete removes a lead inside the scope
func (r *GormLeadRepository) Delete(ctx context.Context, tenantID, organizationID, id uuid.UUID) error {
	result := scoped(r.db.WithContext(ctx), tenantID, organizationID).
		Where("id = ?", id).
		Delete(&models.LeadModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByOrganization counts the leads of one organization
func (r *GormLeadRepository) CountByOrganization(ctx context.Context, tenantID, organizationID uuid.UUID) (int64, error) {
	var count int64
	err := scoped(r.db.WithContext(ctx).Model(&models.LeadModel{}), tenantID, organizationID).
		Count(&count).Error
	return count, err
}

// applyColumnFilters adds equality conditions for whitelisted filter keys.
// Unknown keys are ignored.
func applyColumnFilters(query *gorm.DB, filters map[string]interface{}, allowed map[string]string) *gorm.DB {
	for key, value := range filters {
		column, ok := allowed[key]
		if !ok || value == nil || value == "" {
			continue
		}
		query = query.Where(column+" = ?", value)
	}
	return query
}
