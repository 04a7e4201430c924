package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// ScopedModel holds the columns of every tenant/organization scoped row.
// The composite index backs the (tenant_id, organization_id) filter that
// every scoped query starts with. It is named per table (idx_<table>_scope)
// since SQLite index names share one namespace.
type ScopedModel struct {
	BaseModel
	TenantID       uuid.UUID  `gorm:"type:uuid;not null;index:,composite:scope,priority:1"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index:,composite:scope,priority:2"`
	CreatedBy      *uuid.UUID `gorm:"type:uuid"`
}

// FromDomainScopedEntity populates ScopedModel from a domain ScopedEntity
func (m *ScopedModel) FromDomainScopedEntity(e shared.ScopedEntity) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
	m.OrganizationID = e.OrganizationID
	m.CreatedBy = e.CreatedBy
}

// ToScopedEntity converts ScopedModel to a domain ScopedEntity
func (m *ScopedModel) ToScopedEntity() shared.ScopedEntity {
	return shared.ScopedEntity{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantScoped: shared.TenantScoped{
			TenantID:       m.TenantID,
			OrganizationID: m.OrganizationID,
		},
		CreatedBy: m.CreatedBy,
	}
}
