package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestContext(userID, tenantID, orgID uuid.UUID) *identity.RequestContext {
	return &identity.RequestContext{
		UserID:           userID,
		Email:            "a@x.com",
		TenantID:         tenantID,
		TenantSlug:       "acme",
		OrganizationID:   orgID,
		OrganizationName: "Ventas",
		Roles:            []string{"owner"},
		ResolvedAt:       time.Now(),
	}
}

func TestMemoryContextCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryContextCache(100, time.Minute)
	rc := newRequestContext(uuid.New(), uuid.New(), uuid.New())

	_, ok := c.Get(ctx, rc.Key())
	assert.False(t, ok)

	c.Set(ctx, rc.Key(), rc)

	got, ok := c.Get(ctx, rc.Key())
	require.True(t, ok)
	assert.Equal(t, rc.OrganizationID, got.OrganizationID)
	assert.Equal(t, []string{"owner"}, got.Roles)

	// Entries are snapshots: mutating the caller's copy does not leak in.
	got.Roles[0] = "member"
	again, _ := c.Get(ctx, rc.Key())
	assert.Equal(t, "owner", again.Roles[0])
}

func TestMemoryContextCache_InvalidateDropsAllUserEntries(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryContextCache(100, time.Minute)
	userID, tenantID := uuid.New(), uuid.New()
	first := newRequestContext(userID, tenantID, uuid.New())
	second := newRequestContext(userID, tenantID, uuid.New())
	other := newRequestContext(uuid.New(), tenantID, first.OrganizationID)

	c.Set(ctx, first.Key(), first)
	c.Set(ctx, second.Key(), second)
	c.Set(ctx, other.Key(), other)

	c.Invalidate(ctx, userID)

	_, ok := c.Get(ctx, first.Key())
	assert.False(t, ok)
	_, ok = c.Get(ctx, second.Key())
	assert.False(t, ok)
	_, ok = c.Get(ctx, other.Key())
	assert.True(t, ok, "other users keep their entries")
}

func TestMemoryContextCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryContextCache(100, 20*time.Millisecond)
	rc := newRequestContext(uuid.New(), uuid.New(), uuid.New())

	c.Set(ctx, rc.Key(), rc)
	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, rc.Key())
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func indexedUsers(c *MemoryContextCache) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func TestMemoryContextCache_MissPrunesIndex(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryContextCache(100, 20*time.Millisecond)
	rc := newRequestContext(uuid.New(), uuid.New(), uuid.New())

	c.Set(ctx, rc.Key(), rc)
	assert.Equal(t, 1, indexedUsers(c))

	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, rc.Key())
		return !ok
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, indexedUsers(c))
}

func TestMemoryContextCache_SetSweepsExpiredUsers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryContextCache(100, 20*time.Millisecond)
	c.sweepAt = 2

	first := newRequestContext(uuid.New(), uuid.New(), uuid.New())
	second := newRequestContext(uuid.New(), uuid.New(), uuid.New())
	c.Set(ctx, first.Key(), first)
	c.Set(ctx, second.Key(), second)
	time.Sleep(50 * time.Millisecond)

	third := newRequestContext(uuid.New(), uuid.New(), uuid.New())
	c.Set(ctx, third.Key(), third)

	assert.Equal(t, 1, indexedUsers(c))
	_, ok := c.Get(ctx, third.Key())
	assert.True(t, ok)
}

func TestContextKey_String(t *testing.T) {
	u, tn, o := uuid.New(), uuid.New(), uuid.New()
	key := identity.ContextKey{UserID: u, TenantID: tn, OrganizationID: o}
	assert.Equal(t, u.String()+":"+tn.String()+":"+o.String(), key.String())
}
