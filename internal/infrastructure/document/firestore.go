package document

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	fieldProfile        = "aiProfile"
	fieldCommunications = "communications"
	fieldUpdatedAt      = "updatedAt"
)

// NewFirestoreClient opens a Firestore client for cfg.ProjectID.
// FIRESTORE_EMULATOR_HOST is honoured by the SDK itself.
func NewFirestoreClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// clientDocument is the stored shape of a client document
type clientDocument struct {
	Profile        *crm.AIProfile            `firestore:"aiProfile,omitempty"`
	Communications []crm.CommunicationRecord `firestore:"communications,omitempty"`
}

// FirestoreClientStore keeps client documents at
// tenants/{t}/organizations/{o}/clients/{c}
type FirestoreClientStore struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreClientStore creates a new FirestoreClientStore
func NewFirestoreClientStore(client *firestore.Client, logger *zap.Logger) *FirestoreClientStore {
	return &FirestoreClientStore{client: client, logger: logger}
}

func (s *FirestoreClientStore) doc(tenantID, organizationID, clientID uuid.UUID) *firestore.DocumentRef {
	return s.client.Doc(crm.ClientDocumentPath(tenantID, organizationID, clientID))
}

func (s *FirestoreClientStore) load(ctx context.Context, tenantID, organizationID, clientID uuid.UUID) (*clientDocument, error) {
	snap, err := s.doc(tenantID, organizationID, clientID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read client document: %w", err)
	}
	var out clientDocument
	if err := snap.DataTo(&out); err != nil {
		return nil, fmt.Errorf("failed to decode client document: %w", err)
	}
	return &out, nil
}

// GetProfile returns the client's AI profile or shared.ErrNotFound
func (s *FirestoreClientStore) GetProfile(ctx context.Context, tenantID, organizationID, clientID uuid.UUID) (*crm.AIProfile, error) {
	d, err := s.load(ctx, tenantID, organizationID, clientID)
	if err != nil {
		return nil, err
	}
	if d.Profile == nil {
		return nil, shared.ErrNotFound
	}
	return d.Profile, nil
}

// SaveProfile replaces the AI profile, leaving the communication history intact
func (s *FirestoreClientStore) SaveProfile(ctx context.Context, tenantID, organizationID, clientID uuid.UUID, profile crm.AIProfile) error {
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}
	_, err := s.doc(tenantID, organizationID, clientID).Set(ctx, map[string]interface{}{
		fieldProfile:   profile,
		fieldUpdatedAt: firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to save client profile: %w", err)
	}
	return nil
}

// AppendCommunication adds one record to the client's history
func (s *FirestoreClientStore) AppendCommunication(ctx context.Context, tenantID, organizationID, clientID uuid.UUID, record crm.CommunicationRecord) error {
	_, err := s.doc(tenantID, organizationID, clientID).Set(ctx, map[string]interface{}{
		fieldCommunications: firestore.ArrayUnion(record),
		fieldUpdatedAt:      firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to append communication: %w", err)
	}
	s.logger.Debug("Communication appended",
		zap.String("client_id", clientID.String()),
		zap.String("channel", string(record.Channel)))
	return nil
}

// ListCommunications returns up to limit records, newest first.
// A client without a document has an empty history.
func (s *FirestoreClientStore) ListCommunications(ctx context.Context, tenantID, organizationID, clientID uuid.UUID, limit int) ([]crm.CommunicationRecord, error) {
	d, err := s.load(ctx, tenantID, organizationID, clientID)
	if errors.Is(err, shared.ErrNotFound) {
		return []crm.CommunicationRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return newestFirst(d.Communications, limit), nil
}

// FirestoreAgentStore keeps voice-agent configurations in the document
// tenants/{t}/agents/elevenlabs, one field per agent ID
type FirestoreAgentStore struct {
	client *firestore.Client
}

// NewFirestoreAgentStore creates a new FirestoreAgentStore
func NewFirestoreAgentStore(client *firestore.Client) *FirestoreAgentStore {
	return &FirestoreAgentStore{client: client}
}

func (s *FirestoreAgentStore) all(ctx context.Context, tenantID uuid.UUID) (map[string]crm.AgentConfig, error) {
	snap, err := s.client.Doc(crm.AgentsDocumentPath(tenantID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return map[string]crm.AgentConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read agent configs: %w", err)
	}
	out := make(map[string]crm.AgentConfig)
	if err := snap.DataTo(&out); err != nil {
		return nil, fmt.Errorf("failed to decode agent configs: %w", err)
	}
	return out, nil
}

// Get returns one agent configuration or shared.ErrNotFound
func (s *FirestoreAgentStore) Get(ctx context.Context, tenantID uuid.UUID, agentID string) (*crm.AgentConfig, error) {
	all, err := s.all(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	cfg, ok := all[agentID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &cfg, nil
}

// Save writes one agent configuration, leaving the others untouched
func (s *FirestoreAgentStore) Save(ctx context.Context, tenantID uuid.UUID, cfg crm.AgentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.UpdatedAt = time.Now().UTC()
	_, err := s.client.Doc(crm.AgentsDocumentPath(tenantID)).Set(ctx, map[string]interface{}{
		cfg.AgentID: cfg,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to save agent config: %w", err)
	}
	return nil
}

// List returns every agent configuration of the tenant ordered by agent ID
func (s *FirestoreAgentStore) List(ctx context.Context, tenantID uuid.UUID) ([]crm.AgentConfig, error) {
	all, err := s.all(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return sortedAgents(all), nil
}

func newestFirst(records []crm.CommunicationRecord, limit int) []crm.CommunicationRecord {
	out := make([]crm.CommunicationRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortedAgents(all map[string]crm.AgentConfig) []crm.AgentConfig {
	out := make([]crm.AgentConfig, 0, len(all))
	for _, cfg := range all {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

var (
	_ crm.ClientDocumentStore = (*FirestoreClientStore)(nil)
	_ crm.AgentConfigStore    = (*FirestoreAgentStore)(nil)
)
