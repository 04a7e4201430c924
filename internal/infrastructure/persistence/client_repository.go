package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var clientFilterColumns = map[string]string{
	"status":  "status",
	"lead_id": "lead_id",
}

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client with its payments inside the scope
func (r *GormClientRepository) FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*crm.Client, error) {
	var model models.ClientModel
	if err := scoped(r.db.WithContext(ctx), tenantID, organizationID).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") }).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists clients in the scope. Payments are not loaded.
func (r *GormClientRepository) FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]crm.Client, int64, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.ClientModel{}), tenantID, organizationID)

	if filter.Search != "" {
		kw := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?", kw, kw, kw)
	}
	query = applyColumnFilters(query, filter.Filters, clientFilterColumns)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ClientModel
	if err := paginate(query, filter, ClientSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	clients := make([]crm.Client, len(rows))
	for i := range rows {
		clients[i] = *rows[i].ToDomain()
	}
	return clients, total, nil
}

// Save upserts the client row and inserts payments not yet stored. The
// payment ledger is append-only.
func (r *GormClientRepository) Save(ctx context.Context, client *crm.Client) error {
	var model models.ClientModel
	model.FromDomain(client)

	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Payments").Save(&model).Error; err != nil {
			return err
		}
		if len(model.Payments) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Payments).Error
	}))
}

// Delete removes a client and its payments inside the scope
func (r *GormClientRepository) Delete(ctx context.Context, tenantID, organizationID, id uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := scoped(tx, tenantID, organizationID).Where("id = ?", id).Delete(&models.ClientModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("client_id = ?", id).Delete(&models.ClientPaymentModel{}).Error
	}))
}
