package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// APIKeyScope is a permission carried by an API key
type APIKeyScope string

const (
	ScopeLeadsWrite  APIKeyScope = "leads:write"
	ScopeLeadsDelete APIKeyScope = "leads:delete"
)

// Valid reports whether the scope is known
func (s APIKeyScope) Valid() bool {
	return s == ScopeLeadsWrite || s == ScopeLeadsDelete
}

const (
	apiKeyPrefix          = "mk"
	defaultKeyRatePerMin  = 60
	maxKeyRatePerMin      = 6000
	apiKeySecretByteCount = 24
)

// APIKey is a server-to-server credential pinned to one organization.
// Only a SHA-256 hash of the secret is stored.
type APIKey struct {
	shared.BaseEntity
	shared.TenantScoped
	Name               string
	Prefix             string
	KeyHash            string
	Scopes             []APIKeyScope
	RateLimitPerMinute int
	ExpiresAt          *time.Time
	RevokedAt          *time.Time
	LastUsedAt         *time.Time
	CreatedBy          uuid.UUID
}

// GenerateAPIKey creates a key and returns it together with the plaintext,
// which is never recoverable afterwards.
func GenerateAPIKey(scope shared.Scope, name string, scopes []APIKeyScope, ratePerMinute int, ttl time.Duration) (*APIKey, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", shared.NewDomainError("INVALID_API_KEY_NAME", "API key name cannot be empty")
	}
	if len(scopes) == 0 {
		return nil, "", shared.NewDomainError("INVALID_API_KEY_SCOPE", "At least one scope is required")
	}
	for _, s := range scopes {
		if !s.Valid() {
			return nil, "", shared.NewDomainError("INVALID_API_KEY_SCOPE", "Unknown scope: "+string(s))
		}
	}
	if ratePerMinute <= 0 {
		ratePerMinute = defaultKeyRatePerMin
	}
	if ratePerMinute > maxKeyRatePerMin {
		ratePerMinute = maxKeyRatePerMin
	}

	buf := make([]byte, apiKeySecretByteCount)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", shared.NewDomainError("API_KEY_GENERATION_FAILED", "Failed to generate API key")
	}
	prefix := strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	plaintext := apiKeyPrefix + "_" + prefix + "_" + base64.RawURLEncoding.EncodeToString(buf)

	key := &APIKey{
		BaseEntity: shared.NewBaseEntity(),
		TenantScoped: shared.TenantScoped{
			TenantID:       scope.TenantID,
			OrganizationID: scope.OrganizationID,
		},
		Name:               name,
		Prefix:             prefix,
		KeyHash:            HashAPIKey(plaintext),
		Scopes:             scopes,
		RateLimitPerMinute: ratePerMinute,
		CreatedBy:          scope.UserID,
	}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		key.ExpiresAt = &exp
	}
	return key, plaintext, nil
}

// HashAPIKey returns the lookup hash for a plaintext key
func HashAPIKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// HasScope reports whether the key carries scope
func (k *APIKey) HasScope(scope APIKeyScope) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// IsUsable reports whether the key is neither revoked nor expired at now
func (k *APIKey) IsUsable(now time.Time) bool {
	if k.RevokedAt != nil {
		return false
	}
	if k.ExpiresAt != nil && !now.Before(*k.ExpiresAt) {
		return false
	}
	return true
}

// Revoke marks the key revoked
func (k *APIKey) Revoke() error {
	if k.RevokedAt != nil {
		return shared.NewDomainError("API_KEY_REVOKED", "API key is already revoked")
	}
	now := time.Now()
	k.RevokedAt = &now
	k.UpdatedAt = now
	return nil
}

// Scope returns the trusted scope this key acts under
func (k *APIKey) Scope() shared.Scope {
	return shared.Scope{
		TenantID:       k.TenantID,
		OrganizationID: k.OrganizationID,
		UserID:         k.CreatedBy,
	}
}
