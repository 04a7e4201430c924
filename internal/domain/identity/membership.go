package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// Role is a user's role inside an organization
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether the role is known
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Membership links a user to an organization with a role
type Membership struct {
	UserID         uuid.UUID
	TenantID       uuid.UUID
	OrganizationID uuid.UUID
	Role           Role
	CreatedAt      time.Time
}

// NewMembership creates a membership after validating the role
func NewMembership(userID, tenantID, organizationID uuid.UUID, role Role) (*Membership, error) {
	if userID == uuid.Nil || tenantID == uuid.Nil || organizationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBERSHIP", "User, tenant and organization are required")
	}
	if !role.Valid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	return &Membership{
		UserID:         userID,
		TenantID:       tenantID,
		OrganizationID: organizationID,
		Role:           role,
		CreatedAt:      time.Now(),
	}, nil
}

// RolesFor collects the distinct roles held in organizationID
func RolesFor(memberships []Membership, organizationID uuid.UUID) []string {
	seen := make(map[Role]bool)
	roles := make([]string, 0, 1)
	for _, m := range memberships {
		if m.OrganizationID != organizationID || seen[m.Role] {
			continue
		}
		seen[m.Role] = true
		roles = append(roles, string(m.Role))
	}
	return roles
}

// InTenant reports whether any membership belongs to tenantID
func InTenant(memberships []Membership, tenantID uuid.UUID) bool {
	for _, m := range memberships {
		if m.TenantID == tenantID {
			return true
		}
	}
	return false
}
