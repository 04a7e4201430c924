package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// TenantModel is the persistence model for the Tenant entity.
type TenantModel struct {
	BaseModel
	Name    string                `gorm:"type:varchar(200);not null"`
	Slug    string                `gorm:"type:varchar(63);not null;uniqueIndex"`
	Plan    identity.TenantPlan   `gorm:"type:varchar(20);not null;default:'free'"`
	OwnerID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Status  identity.TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Slug:       m.Slug,
		Plan:       m.Plan,
		OwnerID:    m.OwnerID,
		Status:     m.Status,
	}
}

// FromDomain populates the persistence model from a domain Tenant entity.
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Name = t.Name
	m.Slug = t.Slug
	m.Plan = t.Plan
	m.OwnerID = t.OwnerID
	m.Status = t.Status
}

// OrganizationModel is the persistence model for the Organization entity.
type OrganizationModel struct {
	BaseModel
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the persistence model to a domain Organization entity.
func (m *OrganizationModel) ToDomain() *identity.Organization {
	return &identity.Organization{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		Name:        m.Name,
		Description: m.Description,
		OwnerID:     m.OwnerID,
	}
}

// FromDomain populates the persistence model from a domain Organization entity.
func (m *OrganizationModel) FromDomain(o *identity.Organization) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.TenantID = o.TenantID
	m.Name = o.Name
	m.Description = o.Description
	m.OwnerID = o.OwnerID
}

// UserModel is the persistence model for the User entity. Users are global;
// tenant access is recorded in memberships.
type UserModel struct {
	BaseModel
	Email        string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash string              `gorm:"type:varchar(255);not null"`
	DisplayName  string              `gorm:"type:varchar(200)"`
	Status       identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:   m.BaseModel.ToDomain(),
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		DisplayName:  m.DisplayName,
		Status:       m.Status,
		LastLoginAt:  m.LastLoginAt,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.DisplayName = u.DisplayName
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
}

// MembershipModel links a user to an organization with a role.
type MembershipModel struct {
	UserID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID     `gorm:"type:uuid;primaryKey;index"`
	TenantID       uuid.UUID     `gorm:"type:uuid;not null;index"`
	Role           identity.Role `gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MembershipModel) TableName() string {
	return "memberships"
}

// ToDomain converts the persistence model to a domain Membership.
func (m *MembershipModel) ToDomain() identity.Membership {
	return identity.Membership{
		UserID:         m.UserID,
		TenantID:       m.TenantID,
		OrganizationID: m.OrganizationID,
		Role:           m.Role,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Membership.
func (m *MembershipModel) FromDomain(ms *identity.Membership) {
	m.UserID = ms.UserID
	m.TenantID = ms.TenantID
	m.OrganizationID = ms.OrganizationID
	m.Role = ms.Role
	m.CreatedAt = ms.CreatedAt
}

// APIKeyModel is the persistence model for API keys. Only the hash is stored.
type APIKeyModel struct {
	BaseModel
	TenantID           uuid.UUID `gorm:"type:uuid;not null;index"`
	OrganizationID     uuid.UUID `gorm:"type:uuid;not null"`
	Name               string    `gorm:"type:varchar(100);not null"`
	Prefix             string    `gorm:"type:varchar(16);not null"`
	KeyHash            string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Scopes             []string  `gorm:"type:text;serializer:json"`
	RateLimitPerMinute int       `gorm:"not null;default:60"`
	ExpiresAt          *time.Time
	RevokedAt          *time.Time
	LastUsedAt         *time.Time
	CreatedBy          uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (APIKeyModel) TableName() string {
	return "api_keys"
}

// ToDomain converts the persistence model to a domain APIKey.
func (m *APIKeyModel) ToDomain() *identity.APIKey {
	scopes := make([]identity.APIKeyScope, len(m.Scopes))
	for i, s := range m.Scopes {
		scopes[i] = identity.APIKeyScope(s)
	}
	return &identity.APIKey{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantScoped: shared.TenantScoped{
			TenantID:       m.TenantID,
			OrganizationID: m.OrganizationID,
		},
		Name:               m.Name,
		Prefix:             m.Prefix,
		KeyHash:            m.KeyHash,
		Scopes:             scopes,
		RateLimitPerMinute: m.RateLimitPerMinute,
		ExpiresAt:          m.ExpiresAt,
		RevokedAt:          m.RevokedAt,
		LastUsedAt:         m.LastUsedAt,
		CreatedBy:          m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain APIKey.
func (m *APIKeyModel) FromDomain(k *identity.APIKey) {
	m.FromDomainBaseEntity(k.BaseEntity)
	m.TenantID = k.TenantID
	m.OrganizationID = k.OrganizationID
	m.Name = k.Name
	m.Prefix = k.Prefix
	m.KeyHash = k.KeyHash
	m.Scopes = make([]string, len(k.Scopes))
	for i, s := range k.Scopes {
		m.Scopes[i] = string(s)
	}
	m.RateLimitPerMinute = k.RateLimitPerMinute
	m.ExpiresAt = k.ExpiresAt
	m.RevokedAt = k.RevokedAt
	m.LastUsedAt = k.LastUsedAt
	m.CreatedBy = k.CreatedBy
}
