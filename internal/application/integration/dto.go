package integration

import (
	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/integration"
)

// PersonalizeRequest asks for a call script tailored to one lead
type PersonalizeRequest struct {
	LeadID    uuid.UUID `json:"leadId" binding:"required"`
	Objective string    `json:"callObjective" binding:"required,max=500"`
	Tone      string    `json:"tone" binding:"omitempty,oneof=formal friendly consultative direct"`
	Language  string    `json:"language" binding:"omitempty,len=2"`
}

// ScriptMetadata describes where a script came from
type ScriptMetadata struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	LeadID    uuid.UUID `json:"leadId"`
	Objective string    `json:"objective"`
}

// PersonalizeResult is a generated script plus its metadata
type PersonalizeResult struct {
	Script   integration.CallScript `json:"script"`
	Metadata ScriptMetadata         `json:"metadata"`
}

// AnalysisRequest carries a transcript and, optionally, the client it belongs to
type AnalysisRequest struct {
	ClientID   *uuid.UUID `json:"clientId"`
	Transcript string     `json:"transcript" binding:"required,max=200000"`
}

// SendWhatsAppRequest sends a text message to a client
type SendWhatsAppRequest struct {
	ClientID uuid.UUID `json:"clientId" binding:"required"`
	Message  string    `json:"message" binding:"required,max=4096"`
}

// WhatsAppResult is the delivery acknowledgement plus the stored record
type WhatsAppResult struct {
	Delivery        integration.WhatsAppDelivery `json:"delivery"`
	CommunicationID string                       `json:"communicationId"`
}

// AgentRequest creates or replaces a voice-agent configuration
type AgentRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Voice        string `json:"voice" binding:"max=100"`
	FirstMessage string `json:"firstMessage" binding:"max=2000"`
	SystemPrompt string `json:"systemPrompt" binding:"max=20000"`
	Language     string `json:"language" binding:"omitempty,len=2"`
}

func (r AgentRequest) config(agentID string) crm.AgentConfig {
	return crm.AgentConfig{
		AgentID:      agentID,
		Name:         r.Name,
		Voice:        r.Voice,
		FirstMessage: r.FirstMessage,
		SystemPrompt: r.SystemPrompt,
		Language:     r.Language,
	}
}

// StartCallRequest names the lead an agent should call
type StartCallRequest struct {
	LeadID uuid.UUID `json:"leadId" binding:"required"`
}
