package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindBySlug(ctx context.Context, slug string) (*identity.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *MockTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.Organization, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]identity.Organization, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]identity.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindFirstByTenant(ctx context.Context, tenantID uuid.UUID) (*identity.Organization, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) Save(ctx context.Context, org *identity.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]identity.Membership, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.Get(0).([]identity.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindByUserAndOrganization(ctx context.Context, userID, organizationID uuid.UUID) (*identity.Membership, error) {
	args := m.Called(ctx, userID, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Membership), args.Error(1)
}

func (m *MockMembershipRepository) Save(ctx context.Context, membership *identity.Membership) error {
	return m.Called(ctx, membership).Error(0)
}

func (m *MockMembershipRepository) FindUserIDsByOrganization(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) FindByHash(ctx context.Context, hash string) (*identity.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.APIKey, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Save(ctx context.Context, key *identity.APIKey) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockAPIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockLeadCounter struct {
	mock.Mock
}

// Only CountByOrganization is exercised by the organization service
func (m *MockLeadCounter) CountByOrganization(ctx context.Context, tenantID, organizationID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, organizationID)
	return args.Get(0).(int64), args.Error(1)
}

// fakeCache is a map-backed ContextCache that records invalidations
type fakeCache struct {
	mu          sync.Mutex
	entries     map[identity.ContextKey]*identity.RequestContext
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[identity.ContextKey]*identity.RequestContext{}}
}

func (c *fakeCache) Get(_ context.Context, key identity.ContextKey) (*identity.RequestContext, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rc, ok := c.entries[key]
	return rc, ok
}

func (c *fakeCache) Set(_ context.Context, key identity.ContextKey, rc *identity.RequestContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = rc
}

func (c *fakeCache) Invalidate(_ context.Context, userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, userID)
	for k := range c.entries {
		if k.UserID == userID {
			delete(c.entries, k)
		}
	}
}

var errNotFound = shared.ErrNotFound
