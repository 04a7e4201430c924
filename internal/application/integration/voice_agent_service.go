package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	crmapp "github.com/mar-ia/crm/internal/application/crm"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const elevenLabsProvider = "elevenlabs"

// VoiceAgentService keeps voice-agent configurations and places calls
type VoiceAgentService struct {
	agents    crm.AgentConfigStore
	leads     crm.LeadRepository
	documents crm.ClientDocumentStore
	provider  integration.VoiceAgentProvider
	calls     callRecorder
	logger    *zap.Logger
}

// NewVoiceAgentService creates the service. Without a provider, configurations
// are stored but never synced and calls fail.
func NewVoiceAgentService(
	agents crm.AgentConfigStore,
	leads crm.LeadRepository,
	documents crm.ClientDocumentStore,
	provider integration.VoiceAgentProvider,
	metrics *telemetry.CRMMetrics,
	logger *zap.Logger,
) *VoiceAgentService {
	return &VoiceAgentService{
		agents:    agents,
		leads:     leads,
		documents: documents,
		provider:  provider,
		calls:     newCallRecorder(metrics, logger),
		logger:    logger,
	}
}

// SaveAgent stores the configuration and pushes it to the provider.
// Requires owner or admin.
func (s *VoiceAgentService) SaveAgent(ctx context.Context, scope shared.Scope, agentID string, req AgentRequest) (*crm.AgentConfig, error) {
	if !scope.HasRole("owner", "admin") {
		return nil, shared.ErrForbidden.WithDetails("owner or admin role required")
	}
	cfg := req.config(agentID)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.UpdatedAt = time.Now().UTC()
	if err := s.agents.Save(ctx, scope.TenantID, cfg); err != nil {
		return nil, fmt.Errorf("save agent: %w", err)
	}
	if s.provider != nil {
		err := s.provider.SyncAgent(ctx, cfg)
		s.calls.record(ctx, elevenLabsProvider, "sync_agent", err)
		if err != nil {
			return nil, err
		}
	}
	s.logger.Info("Voice agent saved",
		zap.String("tenant_id", scope.TenantID.String()),
		zap.String("agent_id", cfg.AgentID))
	return &cfg, nil
}

// GetAgent returns one configuration of the tenant
func (s *VoiceAgentService) GetAgent(ctx context.Context, scope shared.Scope, agentID string) (*crm.AgentConfig, error) {
	cfg, err := s.agents.Get(ctx, scope.TenantID, agentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return cfg, nil
}

// ListAgents returns every configuration of the tenant
func (s *VoiceAgentService) ListAgents(ctx context.Context, scope shared.Scope) ([]crm.AgentConfig, error) {
	agents, err := s.agents.List(ctx, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if agents == nil {
		agents = []crm.AgentConfig{}
	}
	return agents, nil
}

// StartCall has the agent call the lead's phone. When the lead has a client
// record the call is appended to its history.
func (s *VoiceAgentService) StartCall(ctx context.Context, scope shared.Scope, agentID string, req StartCallRequest) (*integration.VoiceAgentCall, error) {
	if s.provider == nil {
		return nil, ErrProviderNotConfigured.WithDetails(elevenLabsProvider)
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "VoiceAgentService", "StartCall",
		telemetry.WithAttribute("agent.id", agentID),
		telemetry.WithAttribute("lead.id", req.LeadID.String()))
	defer span.End()

	cfg, err := s.GetAgent(ctx, scope, agentID)
	if err != nil {
		return nil, err
	}
	lead, err := s.leads.FindByID(ctx, scope.TenantID, scope.OrganizationID, req.LeadID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, crmapp.ErrLeadNotFound
		}
		return nil, fmt.Errorf("find lead: %w", err)
	}
	if strings.TrimSpace(lead.Phone) == "" {
		return nil, ErrPhoneRequired
	}

	call, err := s.provider.StartCall(ctx, cfg.AgentID, lead.Phone, map[string]string{
		"lead_name":  lead.FullName(),
		"company":    lead.Company,
		"lead_score": fmt.Sprint(lead.Score),
	})
	s.calls.record(ctx, elevenLabsProvider, "start_call", err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if lead.ClientID != nil {
		rec, recErr := crm.NewCommunicationRecord(crm.ChannelCall, crm.DirectionOutbound,
			"Llamada iniciada por el agente "+cfg.Name, "")
		if recErr == nil {
			rec.Metadata["conversationId"] = call.ConversationID
			rec.Metadata["agentId"] = cfg.AgentID
			recErr = s.documents.AppendCommunication(ctx, scope.TenantID, scope.OrganizationID, *lead.ClientID, *rec)
		}
		if recErr != nil {
			s.logger.Warn("Failed to record voice call",
				zap.String("conversation_id", call.ConversationID), zap.Error(recErr))
		}
	}

	s.logger.Info("Voice agent call started",
		zap.String("agent_id", cfg.AgentID),
		zap.String("lead_id", lead.ID.String()),
		zap.String("conversation_id", call.ConversationID))
	telemetry.SetOK(span)
	return call, nil
}
