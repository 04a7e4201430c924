package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		user, err := NewUser(" A@X.com ", "secret123", "Ana")

		require.NoError(t, err)
		assert.Equal(t, "a@x.com", user.Email)
		assert.NotEqual(t, "secret123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("secret123"))
		assert.False(t, user.VerifyPassword("bad"))
		assert.True(t, user.CanLogin())
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		_, err := NewUser("not-an-email", "secret123", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "email")
	})

	t.Run("fails with weak password", func(t *testing.T) {
		_, err := NewUser("a@x.com", "short", "")
		assert.Error(t, err)

		_, err = NewUser("a@x.com", "onlyletters", "")
		assert.Error(t, err)
	})
}

func TestUser_DisableAndLogin(t *testing.T) {
	user, err := NewUser("a@x.com", "secret123", "")
	require.NoError(t, err)

	user.RecordLogin()
	require.NotNil(t, user.LastLoginAt)

	user.Disable()
	assert.False(t, user.CanLogin())
	assert.Equal(t, "a@x.com", user.NameOrEmail())
}

func TestGenerateAPIKey(t *testing.T) {
	scope := shared.Scope{TenantID: uuid.New(), OrganizationID: uuid.New(), UserID: uuid.New()}

	t.Run("returns plaintext once and stores hash", func(t *testing.T) {
		key, plaintext, err := GenerateAPIKey(scope, "web form", []APIKeyScope{ScopeLeadsWrite}, 0, 0)

		require.NoError(t, err)
		assert.Contains(t, plaintext, "mk_"+key.Prefix+"_")
		assert.Equal(t, HashAPIKey(plaintext), key.KeyHash)
		assert.NotContains(t, key.KeyHash, plaintext)
		assert.Equal(t, defaultKeyRatePerMin, key.RateLimitPerMinute)
		assert.True(t, key.HasScope(ScopeLeadsWrite))
		assert.False(t, key.HasScope(ScopeLeadsDelete))
		assert.Equal(t, scope.TenantID, key.Scope().TenantID)
		assert.Equal(t, scope.OrganizationID, key.Scope().OrganizationID)
	})

	t.Run("rejects unknown scope", func(t *testing.T) {
		_, _, err := GenerateAPIKey(scope, "x", []APIKeyScope{"leads:read-all"}, 10, 0)
		assert.Error(t, err)
	})

	t.Run("rejects empty scope list", func(t *testing.T) {
		_, _, err := GenerateAPIKey(scope, "x", nil, 10, 0)
		assert.Error(t, err)
	})

	t.Run("expiry and revocation", func(t *testing.T) {
		key, _, err := GenerateAPIKey(scope, "x", []APIKeyScope{ScopeLeadsDelete}, 10, time.Hour)
		require.NoError(t, err)

		assert.True(t, key.IsUsable(time.Now()))
		assert.False(t, key.IsUsable(time.Now().Add(2*time.Hour)))

		require.NoError(t, key.Revoke())
		assert.False(t, key.IsUsable(time.Now()))
		assert.Error(t, key.Revoke())
	})
}
