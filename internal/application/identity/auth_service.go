package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/auth"
	"github.com/mar-ia/crm/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AuthService issues and switches context tokens and resolves the request
// context behind a verified token
type AuthService struct {
	tenants     identity.TenantRepository
	orgs        identity.OrganizationRepository
	users       identity.UserRepository
	memberships identity.MembershipRepository
	jwtService  *auth.JWTService
	cache       ContextCache
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tenants identity.TenantRepository,
	orgs identity.OrganizationRepository,
	users identity.UserRepository,
	memberships identity.MembershipRepository,
	jwtService *auth.JWTService,
	cache ContextCache,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tenants:     tenants,
		orgs:        orgs,
		users:       users,
		memberships: memberships,
		jwtService:  jwtService,
		cache:       cache,
		logger:      logger,
	}
}

// Login authenticates a user inside a tenant and issues a token bound to the
// tenant's first organization
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "Login")
	defer span.End()

	s.logger.Info("Login attempt", zap.String("tenant", input.TenantIdentifier))

	tenant, err := s.findTenant(ctx, input.TenantIdentifier)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("tenant_id", tenant.ID.String()))
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if !user.CanLogin() {
		s.logger.Warn("Login attempt for disabled account", zap.String("user_id", user.ID.String()))
		return nil, ErrAccountDisabled
	}
	if !tenant.IsActive() {
		return nil, ErrTenantSuspended
	}

	org, err := s.orgs.FindFirstByTenant(ctx, tenant.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("find first organization: %w", err)
	}

	memberships, err := s.memberships.FindByUser(ctx, tenant.ID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	// Someone who is neither member nor owner looks like an unknown email
	if !identity.InTenant(memberships, tenant.ID) && !tenant.IsOwnedBy(user.ID) {
		s.logger.Warn("Login for user outside tenant",
			zap.String("user_id", user.ID.String()),
			zap.String("tenant_id", tenant.ID.String()))
		return nil, ErrUserNotFound
	}
	roles := rolesIn(memberships, tenant, user.ID, org.ID)

	token, err := s.jwtService.Issue(auth.TokenInput{
		UserID:         user.ID,
		Email:          user.Email,
		TenantID:       tenant.ID,
		OrganizationID: org.ID,
		Roles:          roles,
	})
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		return nil, fmt.Errorf("issue token: %w", err)
	}

	user.RecordLogin()
	if err := s.users.Save(ctx, user); err != nil {
		s.logger.Error("Failed to record login time", zap.Error(err))
	}

	rc := identity.NewRequestContext(user, tenant, org, roles)
	s.cache.Set(ctx, rc.Key(), rc)

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("organization_id", org.ID.String()))
	telemetry.SetOK(span)

	return &LoginResult{
		Token:        token.Token,
		ExpiresAt:    token.ExpiresAt,
		User:         toUserInfo(user),
		Tenant:       toTenantInfo(tenant),
		Organization: ToOrganizationInfo(org),
		Roles:        roles,
	}, nil
}

// findTenant accepts a slug in any case, or the tenant UUID
func (s *AuthService) findTenant(ctx context.Context, identifier string) (*identity.Tenant, error) {
	var (
		tenant *identity.Tenant
		err    error
	)
	if id, parseErr := uuid.Parse(identifier); parseErr == nil {
		tenant, err = s.tenants.FindByID(ctx, id)
	} else {
		tenant, err = s.tenants.FindBySlug(ctx, identity.NormalizeSlug(identifier))
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Tenant not found during login", zap.String("tenant", identifier))
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return tenant, nil
}

// SwitchOrganization reissues the token for another organization of the
// same tenant
func (s *AuthService) SwitchOrganization(ctx context.Context, claims *auth.Claims, organizationID uuid.UUID) (*SwitchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "SwitchOrganization")
	defer span.End()

	tenantID, userID, err := claimIDs(claims)
	if err != nil {
		return nil, err
	}

	org, err := s.orgs.FindByID(ctx, tenantID, organizationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	memberships, err := s.memberships.FindByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	roles := rolesIn(memberships, tenant, userID, org.ID)
	if len(roles) == 0 {
		s.logger.Warn("Switch to organization without membership",
			zap.String("user_id", userID.String()),
			zap.String("organization_id", organizationID.String()))
		return nil, shared.ErrForbidden.WithDetails("not a member of the target organization")
	}

	token, err := s.jwtService.Reissue(claims, org.ID, roles)
	if err != nil {
		return nil, fmt.Errorf("reissue token: %w", err)
	}
	s.cache.Invalidate(ctx, userID)

	s.logger.Info("Active organization switched",
		zap.String("user_id", userID.String()),
		zap.String("from", claims.OrganizationID),
		zap.String("to", org.ID.String()))
	telemetry.SetOK(span)

	return &SwitchResult{
		Token:        token.Token,
		ExpiresAt:    token.ExpiresAt,
		Organization: ToOrganizationInfo(org),
		Roles:        roles,
	}, nil
}

// Logout drops the cached contexts of the caller
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	userID, err := claims.UserUUID()
	if err != nil {
		return ErrTokenInvalid
	}
	s.cache.Invalidate(ctx, userID)
	s.logger.Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

// GetContext returns the user, tenant, organization and roles of the caller
func (s *AuthService) GetContext(ctx context.Context, claims *auth.Claims) (*identity.RequestContext, error) {
	return s.ResolveContext(ctx, claims)
}

// ResolveContext returns the cached request context for claims, loading and
// caching it on a miss. A tenant, organization or user that no longer exists
// yields the matching not-found error.
func (s *AuthService) ResolveContext(ctx context.Context, claims *auth.Claims) (*identity.RequestContext, error) {
	tenantID, userID, err := claimIDs(claims)
	if err != nil {
		return nil, err
	}
	orgID, err := claims.OrganizationUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}

	key := identity.ContextKey{UserID: userID, TenantID: tenantID, OrganizationID: orgID}
	if rc, ok := s.cache.Get(ctx, key); ok {
		return rc, nil
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	org, err := s.orgs.FindByID(ctx, tenantID, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	rc := identity.NewRequestContext(user, tenant, org, claims.Roles)
	s.cache.Set(ctx, key, rc)
	s.logger.Debug("Request context resolved", zap.String("key", key.String()))
	return rc, nil
}

func claimIDs(claims *auth.Claims) (tenantID, userID uuid.UUID, err error) {
	if claims == nil {
		return uuid.Nil, uuid.Nil, ErrTokenInvalid
	}
	if tenantID, err = claims.TenantUUID(); err != nil {
		return uuid.Nil, uuid.Nil, ErrTokenInvalid
	}
	if userID, err = claims.UserUUID(); err != nil {
		return uuid.Nil, uuid.Nil, ErrTokenInvalid
	}
	return tenantID, userID, nil
}

// rolesIn returns the user's roles in orgID; a tenant owner without a
// membership there acts as owner
func rolesIn(memberships []identity.Membership, tenant *identity.Tenant, userID, orgID uuid.UUID) []string {
	roles := identity.RolesFor(memberships, orgID)
	if len(roles) == 0 && tenant.IsOwnedBy(userID) {
		roles = []string{string(identity.RoleOwner)}
	}
	return roles
}
