package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error
}

// MembershipRepository defines the interface for membership persistence
type MembershipRepository interface {
	// FindByUser returns every membership the user holds inside tenantID
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]Membership, error)

	// FindByUserAndOrganization returns one membership or shared.ErrNotFound
	FindByUserAndOrganization(ctx context.Context, userID, organizationID uuid.UUID) (*Membership, error)

	// Save creates or updates a membership
	Save(ctx context.Context, membership *Membership) error

	// FindUserIDsByOrganization lists the members of an organization
	FindUserIDsByOrganization(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error)
}

// APIKeyRepository defines the interface for API key persistence
type APIKeyRepository interface {
	// FindByHash finds a key by its SHA-256 hash
	FindByHash(ctx context.Context, hash string) (*APIKey, error)

	// FindByID finds a key under tenantID
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*APIKey, error)

	// Save creates or updates a key
	Save(ctx context.Context, key *APIKey) error

	// TouchLastUsed records the last use time
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}
