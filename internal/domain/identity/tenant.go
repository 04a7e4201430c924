package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// TenantPlan represents the subscription plan of a tenant
type TenantPlan string

const (
	TenantPlanFree       TenantPlan = "free"
	TenantPlanStarter    TenantPlan = "starter"
	TenantPlanPro        TenantPlan = "pro"
	TenantPlanEnterprise TenantPlan = "enterprise"
)

// IsValid checks if the plan is known
func (p TenantPlan) IsValid() bool {
	switch p {
	case TenantPlanFree, TenantPlanStarter, TenantPlanPro, TenantPlanEnterprise:
		return true
	}
	return false
}

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// Tenant is the top-level isolation boundary. Every organization, lead,
// client and campaign belongs to exactly one tenant.
type Tenant struct {
	shared.BaseEntity
	Name    string
	Slug    string
	Plan    TenantPlan
	OwnerID uuid.UUID
	Status  TenantStatus
}

// NewTenant creates a new active tenant on the free plan
func NewTenant(name, slug string, ownerID uuid.UUID) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot exceed 200 characters")
	}
	slug = NormalizeSlug(slug)
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Tenant owner is required")
	}

	return &Tenant{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Slug:       slug,
		Plan:       TenantPlanFree,
		OwnerID:    ownerID,
		Status:     TenantStatusActive,
	}, nil
}

// NormalizeSlug lower-cases and trims a tenant identifier
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// ValidateSlug checks the slug format
func ValidateSlug(slug string) error {
	if !slugRegex.MatchString(slug) {
		return shared.NewDomainError("INVALID_TENANT_SLUG", "Tenant slug must be 2-63 lowercase letters, digits or dashes")
	}
	return nil
}

// ChangePlan moves the tenant to another plan
func (t *Tenant) ChangePlan(plan TenantPlan) error {
	if !plan.IsValid() {
		return shared.NewDomainError("INVALID_PLAN", "Unknown plan")
	}
	t.Plan = plan
	t.UpdatedAt = time.Now()
	return nil
}

// Suspend suspends the tenant
func (t *Tenant) Suspend() {
	t.Status = TenantStatusSuspended
	t.UpdatedAt = time.Now()
}

// IsActive returns true if the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// IsOwnedBy returns true if userID owns the tenant
func (t *Tenant) IsOwnedBy(userID uuid.UUID) bool {
	return t.OwnerID == userID
}
