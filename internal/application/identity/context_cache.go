package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
)

// ContextCache stores resolved request contexts. Implementations apply their
// own TTL; Invalidate drops every entry of a user across organizations.
type ContextCache interface {
	Get(ctx context.Context, key identity.ContextKey) (*identity.RequestContext, bool)
	Set(ctx context.Context, key identity.ContextKey, rc *identity.RequestContext)
	Invalidate(ctx context.Context, userID uuid.UUID)
}
