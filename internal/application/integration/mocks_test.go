package integration

import (
	"context"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockLanguageModel struct {
	mock.Mock
}

func (m *MockLanguageModel) Name() string { return "fake-llm" }

func (m *MockLanguageModel) Complete(ctx context.Context, req integration.CompletionRequest) (*integration.Completion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Completion), args.Error(1)
}

func completion(text string) *integration.Completion {
	return &integration.Completion{Text: text, Provider: "fake-llm", Model: "fake-1"}
}

type MockWhatsApp struct {
	mock.Mock
}

func (m *MockWhatsApp) SendText(ctx context.Context, toNumber, body string) (*integration.WhatsAppDelivery, error) {
	args := m.Called(ctx, toNumber, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WhatsAppDelivery), args.Error(1)
}

type MockVoiceAgent struct {
	mock.Mock
}

func (m *MockVoiceAgent) StartCall(ctx context.Context, agentID, toNumber string, variables map[string]string) (*integration.VoiceAgentCall, error) {
	args := m.Called(ctx, agentID, toNumber, variables)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.VoiceAgentCall), args.Error(1)
}

func (m *MockVoiceAgent) SyncAgent(ctx context.Context, cfg crm.AgentConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

type MockLeadRepository struct {
	mock.Mock
	crm.LeadRepository
}

func (m *MockLeadRepository) FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*crm.Lead, error) {
	args := m.Called(ctx, tenantID, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Lead), args.Error(1)
}

type MockCampaignRepository struct {
	mock.Mock
	crm.CampaignRepository
}

func (m *MockCampaignRepository) FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*crm.Campaign, error) {
	args := m.Called(ctx, tenantID, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Campaign), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
	crm.ClientRepository
}

func (m *MockClientRepository) FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*crm.Client, error) {
	args := m.Called(ctx, tenantID, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Client), args.Error(1)
}

// memoryDocuments is a ClientDocumentStore that keeps everything in maps
type memoryDocuments struct {
	profiles map[uuid.UUID]crm.AIProfile
	records  map[uuid.UUID][]crm.CommunicationRecord
	failOn   error
}

func newMemoryDocuments() *memoryDocuments {
	return &memoryDocuments{
		profiles: map[uuid.UUID]crm.AIProfile{},
		records:  map[uuid.UUID][]crm.CommunicationRecord{},
	}
}

func (d *memoryDocuments) GetProfile(_ context.Context, _, _, clientID uuid.UUID) (*crm.AIProfile, error) {
	p, ok := d.profiles[clientID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (d *memoryDocuments) SaveProfile(_ context.Context, _, _, clientID uuid.UUID, profile crm.AIProfile) error {
	if d.failOn != nil {
		return d.failOn
	}
	d.profiles[clientID] = profile
	return nil
}

func (d *memoryDocuments) AppendCommunication(_ context.Context, _, _, clientID uuid.UUID, record crm.CommunicationRecord) error {
	if d.failOn != nil {
		return d.failOn
	}
	d.records[clientID] = append(d.records[clientID], record)
	return nil
}

func (d *memoryDocuments) ListCommunications(_ context.Context, _, _, clientID uuid.UUID, _ int) ([]crm.CommunicationRecord, error) {
	return d.records[clientID], nil
}

// memoryAgents is an AgentConfigStore keyed by tenant and agent id
type memoryAgents struct {
	agents map[uuid.UUID]map[string]crm.AgentConfig
}

func newMemoryAgents() *memoryAgents {
	return &memoryAgents{agents: map[uuid.UUID]map[string]crm.AgentConfig{}}
}

func (a *memoryAgents) Get(_ context.Context, tenantID uuid.UUID, agentID string) (*crm.AgentConfig, error) {
	cfg, ok := a.agents[tenantID][agentID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &cfg, nil
}

func (a *memoryAgents) Save(_ context.Context, tenantID uuid.UUID, cfg crm.AgentConfig) error {
	if a.agents[tenantID] == nil {
		a.agents[tenantID] = map[string]crm.AgentConfig{}
	}
	a.agents[tenantID][cfg.AgentID] = cfg
	return nil
}

func (a *memoryAgents) List(_ context.Context, tenantID uuid.UUID) ([]crm.AgentConfig, error) {
	var out []crm.AgentConfig
	for _, cfg := range a.agents[tenantID] {
		out = append(out, cfg)
	}
	return out, nil
}

func testScope(roles ...string) shared.Scope {
	return shared.Scope{
		TenantID:       uuid.New(),
		OrganizationID: uuid.New(),
		UserID:         uuid.New(),
		Roles:          roles,
	}
}
