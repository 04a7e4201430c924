package document

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// MemoryClientStore is a process-local crm.ClientDocumentStore
type MemoryClientStore struct {
	mu   sync.RWMutex
	docs map[string]*clientDocument
}

// NewMemoryClientStore creates an empty MemoryClientStore
func NewMemoryClientStore() *MemoryClientStore {
	return &MemoryClientStore{docs: make(map[string]*clientDocument)}
}

// GetProfile returns the client's AI profile or shared.ErrNotFound
func (s *MemoryClientStore) GetProfile(_ context.Context, tenantID, organizationID, clientID uuid.UUID) (*crm.AIProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[crm.ClientDocumentPath(tenantID, organizationID, clientID)]
	if !ok || d.Profile == nil {
		return nil, shared.ErrNotFound
	}
	p := *d.Profile
	p.Preferences = append([]string(nil), p.Preferences...)
	p.BuyingSignals = append([]string(nil), p.BuyingSignals...)
	return &p, nil
}

// SaveProfile replaces the AI profile
func (s *MemoryClientStore) SaveProfile(_ context.Context, tenantID, organizationID, clientID uuid.UUID, profile crm.AIProfile) error {
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(crm.ClientDocumentPath(tenantID, organizationID, clientID)).Profile = &profile
	return nil
}

// AppendCommunication adds one record to the client's history
func (s *MemoryClientStore) AppendCommunication(_ context.Context, tenantID, organizationID, clientID uuid.UUID, record crm.CommunicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.get(crm.ClientDocumentPath(tenantID, organizationID, clientID))
	d.Communications = append(d.Communications, record)
	return nil
}

// ListCommunications returns up to limit records, newest first
func (s *MemoryClientStore) ListCommunications(_ context.Context, tenantID, organizationID, clientID uuid.UUID, limit int) ([]crm.CommunicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[crm.ClientDocumentPath(tenantID, organizationID, clientID)]
	if !ok {
		return []crm.CommunicationRecord{}, nil
	}
	return newestFirst(d.Communications, limit), nil
}

// get must be called with the write lock held
func (s *MemoryClientStore) get(path string) *clientDocument {
	d, ok := s.docs[path]
	if !ok {
		d = &clientDocument{}
		s.docs[path] = d
	}
	return d
}

// MemoryAgentStore is a process-local crm.AgentConfigStore
type MemoryAgentStore struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]map[string]crm.AgentConfig
}

// NewMemoryAgentStore creates an empty MemoryAgentStore
func NewMemoryAgentStore() *MemoryAgentStore {
	return &MemoryAgentStore{agents: make(map[uuid.UUID]map[string]crm.AgentConfig)}
}

func (s *MemoryAgentStore) Get(_ context.Context, tenantID uuid.UUID, agentID string) (*crm.AgentConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.agents[tenantID][agentID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &cfg, nil
}

func (s *MemoryAgentStore) Save(_ context.Context, tenantID uuid.UUID, cfg crm.AgentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agents[tenantID] == nil {
		s.agents[tenantID] = make(map[string]crm.AgentConfig)
	}
	s.agents[tenantID][cfg.AgentID] = cfg
	return nil
}

func (s *MemoryAgentStore) List(_ context.Context, tenantID uuid.UUID) ([]crm.AgentConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedAgents(s.agents[tenantID]), nil
}

var (
	_ crm.ClientDocumentStore = (*MemoryClientStore)(nil)
	_ crm.AgentConfigStore    = (*MemoryAgentStore)(nil)
)
