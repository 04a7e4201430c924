package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	crmapp "github.com/mar-ia/crm/internal/application/crm"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const callScriptSystemPrompt = `You write outbound sales call scripts. Reply with one JSON object:
{"opening": string, "keyPoints": [string], "objections": [string], "closing": string}.
No prose outside the JSON.`

// CallPersonalizationService generates call scripts tailored to a lead
type CallPersonalizationService struct {
	leads     crm.LeadRepository
	campaigns crm.CampaignRepository
	documents crm.ClientDocumentStore
	model     integration.LanguageModel
	calls     callRecorder
	logger    *zap.Logger
}

// NewCallPersonalizationService creates the service. A nil model makes every
// call fail with PROVIDER_NOT_CONFIGURED.
func NewCallPersonalizationService(
	leads crm.LeadRepository,
	campaigns crm.CampaignRepository,
	documents crm.ClientDocumentStore,
	model integration.LanguageModel,
	metrics *telemetry.CRMMetrics,
	logger *zap.Logger,
) *CallPersonalizationService {
	return &CallPersonalizationService{
		leads:     leads,
		campaigns: campaigns,
		documents: documents,
		model:     model,
		calls:     newCallRecorder(metrics, logger),
		logger:    logger,
	}
}

// Personalize builds a script for the lead and, when the lead already has a
// client record, logs it in the client's history
func (s *CallPersonalizationService) Personalize(ctx context.Context, scope shared.Scope, req PersonalizeRequest) (*PersonalizeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CallPersonalizationService", "Personalize",
		telemetry.WithAttribute("lead.id", req.LeadID.String()))
	defer span.End()

	lead, err := s.leads.FindByID(ctx, scope.TenantID, scope.OrganizationID, req.LeadID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, crmapp.ErrLeadNotFound
		}
		return nil, fmt.Errorf("find lead: %w", err)
	}

	var campaign *crm.Campaign
	if lead.CampaignID != nil {
		campaign, err = s.campaigns.FindByID(ctx, scope.TenantID, scope.OrganizationID, *lead.CampaignID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("find campaign: %w", err)
		}
	}

	var script integration.CallScript
	completion, err := s.calls.complete(ctx, s.model, "personalize_call", integration.CompletionRequest{
		System:      callScriptSystemPrompt,
		Prompt:      buildCallScriptPrompt(lead, campaign, req),
		Temperature: 0.7,
		MaxTokens:   1200,
	}, &script)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := script.Validate(); err != nil {
		s.logger.Warn("Call script failed validation",
			zap.String("provider", completion.Provider), zap.Error(err))
		return nil, err
	}
	script.Provider = completion.Provider
	script.Model = completion.Model
	script.GeneratedAt = time.Now().UTC()

	if lead.ClientID != nil {
		s.logScript(ctx, scope, *lead.ClientID, req, &script)
	}

	telemetry.SetOK(span)
	return &PersonalizeResult{
		Script: script,
		Metadata: ScriptMetadata{
			Provider:  completion.Provider,
			Model:     completion.Model,
			LeadID:    lead.ID,
			Objective: req.Objective,
		},
	}, nil
}

// logScript appends the script summary to the client's history. Failures are
// logged only; the script is still returned.
func (s *CallPersonalizationService) logScript(ctx context.Context, scope shared.Scope, clientID uuid.UUID, req PersonalizeRequest, script *integration.CallScript) {
	rec, err := crm.NewCommunicationRecord(crm.ChannelCall, crm.DirectionOutbound,
		"Guion generado: "+req.Objective, script.Opening+"\n\n"+strings.Join(script.KeyPoints, "\n")+"\n\n"+script.Closing)
	if err != nil {
		return
	}
	rec.Metadata["kind"] = "script"
	rec.Metadata["provider"] = script.Provider
	rec.Metadata["model"] = script.Model
	if err := s.documents.AppendCommunication(ctx, scope.TenantID, scope.OrganizationID, clientID, *rec); err != nil {
		s.logger.Warn("Failed to record call script",
			zap.String("client_id", clientID.String()), zap.Error(err))
	}
}

func buildCallScriptPrompt(lead *crm.Lead, campaign *crm.Campaign, req PersonalizeRequest) string {
	tone := req.Tone
	if tone == "" {
		tone = "consultative"
	}
	language := req.Language
	if language == "" {
		language = "es"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Objective: %s\n", req.Objective)
	fmt.Fprintf(&b, "Tone: %s\nLanguage: %s\n\n", tone, language)
	b.WriteString("Lead:\n")
	fmt.Fprintf(&b, "- Name: %s\n", lead.FullName())
	if lead.Company != "" {
		fmt.Fprintf(&b, "- Company: %s\n", lead.Company)
	}
	fmt.Fprintf(&b, "- Stage: %s\n- Priority: %s\n- Score: %d\n", lead.Status, lead.Priority, lead.Score)
	if notes := strings.TrimSpace(lead.Notes); notes != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", notes)
	}
	if campaign != nil {
		b.WriteString("\nCampaign:\n")
		fmt.Fprintf(&b, "- Name: %s\n", campaign.Name)
		if campaign.Description != "" {
			fmt.Fprintf(&b, "- Description: %s\n", campaign.Description)
		}
	}
	return b.String()
}
