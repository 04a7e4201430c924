package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	// FindByID finds a tenant by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindBySlug finds a tenant by its unique slug (case-insensitive)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)

	// Save creates or updates a tenant
	Save(ctx context.Context, tenant *Tenant) error

	// ExistsBySlug checks if a slug is taken
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}

// OrganizationRepository defines the interface for organization persistence.
// Every lookup is bounded by tenant.
type OrganizationRepository interface {
	// FindByID finds an organization under tenantID
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Organization, error)

	// FindByTenant lists the organizations of a tenant, oldest first
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]Organization, error)

	// FindFirstByTenant returns the oldest organization of a tenant
	FindFirstByTenant(ctx context.Context, tenantID uuid.UUID) (*Organization, error)

	// Save creates or updates an organization
	Save(ctx context.Context, org *Organization) error

	// Delete removes an organization under tenantID together with its
	// memberships, in one transaction
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
