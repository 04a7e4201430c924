package identity

import (
	"time"

	"github.com/google/uuid"
)

// ContextKey identifies one resolved request context. A user has one entry
// per (tenant, organization) pair they have been active in.
type ContextKey struct {
	UserID         uuid.UUID
	TenantID       uuid.UUID
	OrganizationID uuid.UUID
}

// String renders the key as userId:tenantId:organizationId
func (k ContextKey) String() string {
	return k.UserID.String() + ":" + k.TenantID.String() + ":" + k.OrganizationID.String()
}

// RequestContext is the snapshot of who is calling and where, resolved from a
// verified token. It holds no credentials so it can be shared through an
// external cache.
type RequestContext struct {
	UserID           uuid.UUID `json:"userId"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"displayName"`
	TenantID         uuid.UUID `json:"tenantId"`
	TenantName       string    `json:"tenantName"`
	TenantSlug       string    `json:"tenantSlug"`
	TenantPlan       string    `json:"tenantPlan"`
	OrganizationID   uuid.UUID `json:"organizationId"`
	OrganizationName string    `json:"organizationName"`
	Roles            []string  `json:"roles"`
	ResolvedAt       time.Time `json:"resolvedAt"`
}

// NewRequestContext snapshots the resolved user, tenant and organization.
func NewRequestContext(user *User, tenant *Tenant, org *Organization, roles []string) *RequestContext {
	if roles == nil {
		roles = []string{}
	}
	return &RequestContext{
		UserID:           user.ID,
		Email:            user.Email,
		DisplayName:      user.NameOrEmail(),
		TenantID:         tenant.ID,
		TenantName:       tenant.Name,
		TenantSlug:       tenant.Slug,
		TenantPlan:       string(tenant.Plan),
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Roles:            roles,
		ResolvedAt:       time.Now(),
	}
}

// Key returns the cache key of this context
func (rc *RequestContext) Key() ContextKey {
	return ContextKey{UserID: rc.UserID, TenantID: rc.TenantID, OrganizationID: rc.OrganizationID}
}
