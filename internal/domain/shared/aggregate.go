package shared

import (
	"github.com/google/uuid"
)

// TenantScoped is embedded by every record that lives inside an organization.
type TenantScoped struct {
	TenantID       uuid.UUID
	OrganizationID uuid.UUID
}

// BelongsTo reports whether the record lives under the given tenant and organization
func (s TenantScoped) BelongsTo(tenantID, organizationID uuid.UUID) bool {
	return s.TenantID == tenantID && s.OrganizationID == organizationID
}

// ScopedEntity is the base for tenant/organization owned aggregates
type ScopedEntity struct {
	BaseEntity
	TenantScoped
	CreatedBy *uuid.UUID
}

// NewScopedEntity creates a new entity stamped with the given scope
func NewScopedEntity(scope Scope) ScopedEntity {
	e := ScopedEntity{
		BaseEntity: NewBaseEntity(),
		TenantScoped: TenantScoped{
			TenantID:       scope.TenantID,
			OrganizationID: scope.OrganizationID,
		},
	}
	if scope.UserID != uuid.Nil {
		uid := scope.UserID
		e.CreatedBy = &uid
	}
	return e
}

// Scope is the trusted (tenant, organization, user) triple an operation runs under.
// It is always built from a verified token or API key, never from a request body.
type Scope struct {
	TenantID       uuid.UUID
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Roles          []string
}

// Validate checks that tenant and organization are set
func (s Scope) Validate() error {
	if s.TenantID == uuid.Nil || s.OrganizationID == uuid.Nil {
		return ErrUnauthorized
	}
	return nil
}

// HasRole reports whether the scope carries any of the given roles
func (s Scope) HasRole(roles ...string) bool {
	for _, have := range s.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
