package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
	"go.uber.org/zap"
)

// LeadCounter reports how many leads an organization holds
type LeadCounter interface {
	CountByOrganization(ctx context.Context, tenantID, organizationID uuid.UUID) (int64, error)
}

// OrganizationService manages the organizations of the caller's tenant
type OrganizationService struct {
	tenants     identity.TenantRepository
	orgs        identity.OrganizationRepository
	memberships identity.MembershipRepository
	leads       LeadCounter
	cache       ContextCache
	logger      *zap.Logger
}

// NewOrganizationService creates a new organization service. cache may be
// nil; when set, deleting an organization evicts its members' contexts.
func NewOrganizationService(
	tenants identity.TenantRepository,
	orgs identity.OrganizationRepository,
	memberships identity.MembershipRepository,
	leads LeadCounter,
	cache ContextCache,
	logger *zap.Logger,
) *OrganizationService {
	return &OrganizationService{
		tenants:     tenants,
		orgs:        orgs,
		memberships: memberships,
		leads:       leads,
		cache:       cache,
		logger:      logger,
	}
}

// List returns the organizations of the tenant, oldest first
func (s *OrganizationService) List(ctx context.Context, scope shared.Scope) ([]OrganizationInfo, error) {
	orgs, err := s.orgs.FindByTenant(ctx, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	out := make([]OrganizationInfo, len(orgs))
	for i := range orgs {
		out[i] = ToOrganizationInfo(&orgs[i])
	}
	return out, nil
}

// Get returns one organization of the tenant
func (s *OrganizationService) Get(ctx context.Context, scope shared.Scope, id uuid.UUID) (*OrganizationInfo, error) {
	org, err := s.find(ctx, scope.TenantID, id)
	if err != nil {
		return nil, err
	}
	info := ToOrganizationInfo(org)
	return &info, nil
}

// Create adds an organization and makes the caller its owner
func (s *OrganizationService) Create(ctx context.Context, scope shared.Scope, input OrganizationInput) (*OrganizationInfo, error) {
	org, err := identity.NewOrganization(scope.TenantID, input.Name, scope.UserID)
	if err != nil {
		return nil, err
	}
	if err := org.Update(input.Name, input.Description); err != nil {
		return nil, err
	}
	membership, err := identity.NewMembership(scope.UserID, scope.TenantID, org.ID, identity.RoleOwner)
	if err != nil {
		return nil, err
	}

	if err := s.orgs.Save(ctx, org); err != nil {
		return nil, fmt.Errorf("save organization: %w", err)
	}
	if err := s.memberships.Save(ctx, membership); err != nil {
		if delErr := s.orgs.Delete(ctx, scope.TenantID, org.ID); delErr != nil {
			s.logger.Error("Failed to remove organization after membership error",
				zap.String("organization_id", org.ID.String()), zap.Error(delErr))
		}
		return nil, fmt.Errorf("save owner membership: %w", err)
	}

	s.logger.Info("Organization created",
		zap.String("organization_id", org.ID.String()),
		zap.String("tenant_id", scope.TenantID.String()))
	info := ToOrganizationInfo(org)
	return &info, nil
}

// Update changes name and description. Requires owner or admin in the target.
func (s *OrganizationService) Update(ctx context.Context, scope shared.Scope, id uuid.UUID, input OrganizationInput) (*OrganizationInfo, error) {
	org, err := s.find(ctx, scope.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, scope, id, identity.RoleOwner, identity.RoleAdmin); err != nil {
		return nil, err
	}
	if err := org.Update(input.Name, input.Description); err != nil {
		return nil, err
	}
	if err := s.orgs.Save(ctx, org); err != nil {
		return nil, fmt.Errorf("save organization: %w", err)
	}
	info := ToOrganizationInfo(org)
	return &info, nil
}

// Delete removes an empty organization other than the active one
func (s *OrganizationService) Delete(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	if _, err := s.find(ctx, scope.TenantID, id); err != nil {
		return err
	}
	if err := s.requireRole(ctx, scope, id, identity.RoleOwner); err != nil {
		return err
	}
	if id == scope.OrganizationID {
		return shared.ErrConflict.WithDetails("cannot delete the active organization")
	}
	count, err := s.leads.CountByOrganization(ctx, scope.TenantID, id)
	if err != nil {
		return fmt.Errorf("count leads: %w", err)
	}
	if count > 0 {
		return shared.ErrConflict.WithDetails(fmt.Sprintf("organization still has %d leads", count))
	}

	members, err := s.memberships.FindUserIDsByOrganization(ctx, id)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	if err := s.orgs.Delete(ctx, scope.TenantID, id); err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if s.cache != nil {
		for _, userID := range members {
			s.cache.Invalidate(ctx, userID)
		}
	}
	s.logger.Info("Organization deleted",
		zap.String("organization_id", id.String()),
		zap.Int("members", len(members)))
	return nil
}

func (s *OrganizationService) find(ctx context.Context, tenantID, id uuid.UUID) (*identity.Organization, error) {
	org, err := s.orgs.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return org, nil
}

// requireRole checks the caller's membership role in orgID. The tenant
// owner passes every check.
func (s *OrganizationService) requireRole(ctx context.Context, scope shared.Scope, orgID uuid.UUID, allowed ...identity.Role) error {
	tenant, err := s.tenants.FindByID(ctx, scope.TenantID)
	if err != nil {
		return fmt.Errorf("find tenant: %w", err)
	}
	if tenant.IsOwnedBy(scope.UserID) {
		return nil
	}
	m, err := s.memberships.FindByUserAndOrganization(ctx, scope.UserID, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrForbidden.WithDetails("not a member of this organization")
		}
		return fmt.Errorf("find membership: %w", err)
	}
	for _, r := range allowed {
		if m.Role == r {
			return nil
		}
	}
	return shared.ErrForbidden.WithDetails("insufficient role")
}
