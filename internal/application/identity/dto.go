package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
)

// LoginInput contains login credentials
type LoginInput struct {
	Email            string
	Password         string
	TenantIdentifier string
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// TenantInfo is the public view of a tenant
type TenantInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
	Plan string    `json:"plan"`
}

// OrganizationInfo is the public view of an organization
type OrganizationInfo struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token        string           `json:"token"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	User         UserInfo         `json:"user"`
	Tenant       TenantInfo       `json:"tenant"`
	Organization OrganizationInfo `json:"organization"`
	Roles        []string         `json:"roles"`
}

// SwitchResult is returned when the active organization changes
type SwitchResult struct {
	Token        string           `json:"token"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	Organization OrganizationInfo `json:"organization"`
	Roles        []string         `json:"roles"`
}

// OrganizationInput carries the editable organization fields
type OrganizationInput struct {
	Name        string
	Description string
}

// IssueAPIKeyInput carries the fields of a new API key
type IssueAPIKeyInput struct {
	Name               string
	Scopes             []string
	RateLimitPerMinute int
	TTL                time.Duration
}

// IssuedAPIKey is the one response that carries the plaintext key
type IssuedAPIKey struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Prefix             string     `json:"prefix"`
	Key                string     `json:"key"`
	Scopes             []string   `json:"scopes"`
	RateLimitPerMinute int        `json:"rateLimitPerMinute"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
}

func toUserInfo(u *identity.User) UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, DisplayName: u.NameOrEmail(), LastLoginAt: u.LastLoginAt}
}

func toTenantInfo(t *identity.Tenant) TenantInfo {
	return TenantInfo{ID: t.ID, Name: t.Name, Slug: t.Slug, Plan: string(t.Plan)}
}

// ToOrganizationInfo converts a domain organization to its public view
func ToOrganizationInfo(o *identity.Organization) OrganizationInfo {
	return OrganizationInfo{
		ID:          o.ID,
		TenantID:    o.TenantID,
		Name:        o.Name,
		Description: o.Description,
		OwnerID:     o.OwnerID,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toIssuedAPIKey(k *identity.APIKey, plaintext string) *IssuedAPIKey {
	scopes := make([]string, len(k.Scopes))
	for i, s := range k.Scopes {
		scopes[i] = string(s)
	}
	return &IssuedAPIKey{
		ID:                 k.ID,
		Name:               k.Name,
		Prefix:             k.Prefix,
		Key:                plaintext,
		Scopes:             scopes,
		RateLimitPerMinute: k.RateLimitPerMinute,
		ExpiresAt:          k.ExpiresAt,
	}
}
