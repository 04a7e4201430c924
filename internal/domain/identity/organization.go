package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// Organization is a sub-unit within a tenant
type Organization struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	Name        string
	Description string
	OwnerID     uuid.UUID
}

// NewOrganization creates an organization under tenantID
func NewOrganization(tenantID uuid.UUID, name string, ownerID uuid.UUID) (*Organization, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	if err := validateOrganizationName(name); err != nil {
		return nil, err
	}
	return &Organization{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Name:       strings.TrimSpace(name),
		OwnerID:    ownerID,
	}, nil
}

// Update changes name and description
func (o *Organization) Update(name, description string) error {
	if err := validateOrganizationName(name); err != nil {
		return err
	}
	o.Name = strings.TrimSpace(name)
	o.Description = strings.TrimSpace(description)
	o.UpdatedAt = time.Now()
	return nil
}

// BelongsToTenant reports whether the organization lives under tenantID
func (o *Organization) BelongsToTenant(tenantID uuid.UUID) bool {
	return o.TenantID == tenantID
}

func validateOrganizationName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_ORGANIZATION_NAME", "Organization name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_ORGANIZATION_NAME", "Organization name cannot exceed 200 characters")
	}
	return nil
}
