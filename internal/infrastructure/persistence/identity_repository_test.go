package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTenantRepository_FindBySlugIgnoresCase(t *testing.T) {
	ctx := context.Background()
	repo := NewGormTenantRepository(newTestDB(t))

	tenant, err := identity.NewTenant("Acme", "acme", uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tenant))

	found, err := repo.FindBySlug(ctx, "  ACME ")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)

	exists, err := repo.ExistsBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.FindBySlug(ctx, "nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	dup, err := identity.NewTenant("Acme 2", "acme", uuid.New())
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
}

func TestGormOrganizationRepository_FirstAndScoped(t *testing.T) {
	ctx := context.Background()
	repo := NewGormOrganizationRepository(newTestDB(t))
	tenantID, owner := uuid.New(), uuid.New()

	first, err := identity.NewOrganization(tenantID, "Ventas", owner)
	require.NoError(t, err)
	first.CreatedAt = time.Now().Add(-time.Hour)
	second, err := identity.NewOrganization(tenantID, "Soporte", owner)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, first))

	got, err := repo.FindFirstByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	all, err := repo.FindByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ventas", all[0].Name)

	_, err = repo.FindByID(ctx, uuid.New(), first.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindFirstByTenant(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, tenantID, second.ID))
	assert.ErrorIs(t, repo.Delete(ctx, tenantID, second.ID), shared.ErrNotFound)
}

func TestGormUserAndMembershipRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	memberships := NewGormMembershipRepository(db)

	user, err := identity.NewUser("A@X.com", "secret123", "Ana")
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, user))

	found, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, found.VerifyPassword("secret123"))

	tenantID, orgID := uuid.New(), uuid.New()
	ms, err := identity.NewMembership(user.ID, tenantID, orgID, identity.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, memberships.Save(ctx, ms))

	list, err := memberships.FindByUser(ctx, tenantID, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"admin"}, identity.RolesFor(list, orgID))

	list, err = memberships.FindByUser(ctx, uuid.New(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	one, err := memberships.FindByUserAndOrganization(ctx, user.ID, orgID)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, one.Role)

	ids, err := memberships.FindUserIDsByOrganization(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user.ID}, ids)
}

func TestGormOrganizationRepository_DeleteRemovesMemberships(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orgs := NewGormOrganizationRepository(db)
	memberships := NewGormMembershipRepository(db)
	tenantID, userID := uuid.New(), uuid.New()

	org, err := identity.NewOrganization(tenantID, "Soporte", userID)
	require.NoError(t, err)
	require.NoError(t, orgs.Save(ctx, org))
	ms, err := identity.NewMembership(userID, tenantID, org.ID, identity.RoleOwner)
	require.NoError(t, err)
	require.NoError(t, memberships.Save(ctx, ms))

	// wrong tenant: nothing is removed
	assert.ErrorIs(t, orgs.Delete(ctx, uuid.New(), org.ID), shared.ErrNotFound)
	_, err = memberships.FindByUserAndOrganization(ctx, userID, org.ID)
	require.NoError(t, err)

	require.NoError(t, orgs.Delete(ctx, tenantID, org.ID))
	_, err = memberships.FindByUserAndOrganization(ctx, userID, org.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = orgs.FindByID(ctx, tenantID, org.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormAPIKeyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAPIKeyRepository(newTestDB(t))
	scope := newTestScope()

	key, plaintext, err := identity.GenerateAPIKey(scope, "web form", []identity.APIKeyScope{identity.ScopeLeadsWrite}, 30, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, key))

	found, err := repo.FindByHash(ctx, identity.HashAPIKey(plaintext))
	require.NoError(t, err)
	assert.Equal(t, key.ID, found.ID)
	assert.True(t, found.HasScope(identity.ScopeLeadsWrite))
	assert.Equal(t, 30, found.RateLimitPerMinute)
	assert.Nil(t, found.LastUsedAt)

	require.NoError(t, repo.TouchLastUsed(ctx, key.ID))
	found, err = repo.FindByID(ctx, scope.TenantID, key.ID)
	require.NoError(t, err)
	assert.NotNil(t, found.LastUsedAt)

	_, err = repo.FindByID(ctx, uuid.New(), key.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
