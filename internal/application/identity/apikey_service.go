package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
	"go.uber.org/zap"
)

const touchTimeout = 5 * time.Second

// APIKeyService issues, authenticates and revokes server-to-server keys
type APIKeyService struct {
	keys    identity.APIKeyRepository
	logger  *zap.Logger
	now     func() time.Time
	touches sync.WaitGroup
}

// NewAPIKeyService creates a new API key service
func NewAPIKeyService(keys identity.APIKeyRepository, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{keys: keys, logger: logger, now: time.Now}
}

// Issue creates a key pinned to the caller's organization. The plaintext is
// only ever returned here.
func (s *APIKeyService) Issue(ctx context.Context, scope shared.Scope, input IssueAPIKeyInput) (*IssuedAPIKey, error) {
	if !scope.HasRole(string(identity.RoleOwner), string(identity.RoleAdmin)) {
		return nil, shared.ErrForbidden.WithDetails("owner or admin role required")
	}
	scopes := make([]identity.APIKeyScope, 0, len(input.Scopes))
	for _, sc := range input.Scopes {
		scopes = append(scopes, identity.APIKeyScope(strings.TrimSpace(sc)))
	}

	key, plaintext, err := identity.GenerateAPIKey(scope, input.Name, scopes, input.RateLimitPerMinute, input.TTL)
	if err != nil {
		return nil, err
	}
	if err := s.keys.Save(ctx, key); err != nil {
		return nil, fmt.Errorf("save api key: %w", err)
	}

	s.logger.Info("API key issued",
		zap.String("key_id", key.ID.String()),
		zap.String("prefix", key.Prefix),
		zap.String("tenant_id", key.TenantID.String()),
		zap.String("organization_id", key.OrganizationID.String()))
	return toIssuedAPIKey(key, plaintext), nil
}

// Authenticate resolves a plaintext key. The last-used stamp is written in
// the background and its failure never rejects the request.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (*identity.APIKey, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, ErrInvalidAPIKey
	}
	key, err := s.keys.FindByHash(ctx, identity.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("find api key: %w", err)
	}
	if !key.IsUsable(s.now()) {
		s.logger.Warn("Unusable API key presented", zap.String("prefix", key.Prefix))
		return nil, ErrInvalidAPIKey.WithDetails("key is revoked or expired")
	}

	s.touches.Add(1)
	go func(id uuid.UUID) {
		defer s.touches.Done()
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), touchTimeout)
		defer cancel()
		if err := s.keys.TouchLastUsed(tctx, id); err != nil {
			s.logger.Warn("Failed to record API key use", zap.String("key_id", id.String()), zap.Error(err))
		}
	}(key.ID)

	return key, nil
}

// Revoke disables a key of the caller's organization
func (s *APIKeyService) Revoke(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	if !scope.HasRole(string(identity.RoleOwner), string(identity.RoleAdmin)) {
		return shared.ErrForbidden.WithDetails("owner or admin role required")
	}
	key, err := s.keys.FindByID(ctx, scope.TenantID, id)
	if err != nil {
		return err
	}
	if key.OrganizationID != scope.OrganizationID {
		return shared.ErrNotFound
	}
	if err := key.Revoke(); err != nil {
		return err
	}
	if err := s.keys.Save(ctx, key); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	s.logger.Info("API key revoked", zap.String("key_id", id.String()))
	return nil
}

// Wait blocks until pending last-used writes finish
func (s *APIKeyService) Wait() {
	s.touches.Wait()
}
