package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	elevenLabsName       = "elevenlabs"
	elevenLabsDefaultURL = "https://api.elevenlabs.io"
)

type outboundCallRequest struct {
	AgentID            string `json:"agent_id"`
	AgentPhoneNumberID string `json:"agent_phone_number_id"`
	ToNumber           string `json:"to_number"`
	InitiationData     *struct {
		DynamicVariables map[string]string `json:"dynamic_variables"`
	} `json:"conversation_initiation_client_data,omitempty"`
}

type outboundCallResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	CallSID        string `json:"callSid"`
}

type agentPatch struct {
	Name               string `json:"name"`
	ConversationConfig struct {
		Agent struct {
			FirstMessage string `json:"first_message"`
			Language     string `json:"language"`
			Prompt       struct {
				Prompt string `json:"prompt"`
			} `json:"prompt"`
		} `json:"agent"`
		TTS struct {
			VoiceID string `json:"voice_id,omitempty"`
		} `json:"tts"`
	} `json:"conversation_config"`
}

// ElevenLabsClient implements integration.VoiceAgentProvider over the
// Conversational AI API
type ElevenLabsClient struct {
	http          *resty.Client
	phoneNumberID string
	logger        *zap.Logger
}

// NewElevenLabsClient creates an ElevenLabs client
func NewElevenLabsClient(cfg config.ElevenLabsConfig, timeout time.Duration, logger *zap.Logger) *ElevenLabsClient {
	return &ElevenLabsClient{
		http: newRestyClient(orDefault(cfg.BaseURL, elevenLabsDefaultURL), timeout).
			SetHeader("xi-api-key", cfg.APIKey),
		phoneNumberID: cfg.AgentPhoneNumberID,
		logger:        logger,
	}
}

// StartCall places an outbound call from agentID to toNumber.
// variables are exposed to the agent prompt as dynamic variables.
func (c *ElevenLabsClient) StartCall(ctx context.Context, agentID, toNumber string, variables map[string]string) (*integration.VoiceAgentCall, error) {
	body := outboundCallRequest{
		AgentID:            agentID,
		AgentPhoneNumberID: c.phoneNumberID,
		ToNumber:           toNumber,
	}
	if len(variables) > 0 {
		body.InitiationData = &struct {
			DynamicVariables map[string]string `json:"dynamic_variables"`
		}{DynamicVariables: variables}
	}

	var out outboundCallResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v1/convai/twilio/outbound-call")
	if err := checkResponse(elevenLabsName, resp, err, c.logger); err != nil {
		return nil, err
	}
	if !out.Success && out.ConversationID == "" {
		return nil, integration.ClassifyProviderError(elevenLabsName, resp.StatusCode(), out.Message)
	}

	call := &integration.VoiceAgentCall{ConversationID: out.ConversationID}
	if err := call.Validate(); err != nil {
		return nil, err
	}
	c.logger.Info("Outbound call started",
		zap.String("agent_id", agentID),
		zap.String("conversation_id", call.ConversationID))
	return call, nil
}

// SyncAgent pushes the stored configuration to the vendor's agent
func (c *ElevenLabsClient) SyncAgent(ctx context.Context, cfg crm.AgentConfig) error {
	var body agentPatch
	body.Name = cfg.Name
	body.ConversationConfig.Agent.FirstMessage = cfg.FirstMessage
	body.ConversationConfig.Agent.Language = cfg.Language
	body.ConversationConfig.Agent.Prompt.Prompt = cfg.SystemPrompt
	body.ConversationConfig.TTS.VoiceID = cfg.Voice

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Patch(fmt.Sprintf("/v1/convai/agents/%s", cfg.AgentID))
	return checkResponse(elevenLabsName, resp, err, c.logger)
}

var _ integration.VoiceAgentProvider = (*ElevenLabsClient)(nil)
