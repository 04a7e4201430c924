package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// Channel is the medium of a communication
type Channel string

const (
	ChannelCall     Channel = "call"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	// ChannelSystem marks entries written by the CRM itself
	ChannelSystem Channel = "system"
)

// IsValid checks if the channel is one a user may record
func (c Channel) IsValid() bool {
	return c == ChannelCall || c == ChannelEmail || c == ChannelWhatsApp
}

// Direction of a communication relative to the organization
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// CommunicationRecord is one call, email or WhatsApp exchange with a client.
// Records live in the client's document, not in the relational store.
type CommunicationRecord struct {
	ID         string            `json:"id" firestore:"id"`
	Channel    Channel           `json:"channel" firestore:"channel"`
	Direction  Direction         `json:"direction" firestore:"direction"`
	Summary    string            `json:"summary" firestore:"summary"`
	Transcript string            `json:"transcript,omitempty" firestore:"transcript,omitempty"`
	OccurredAt time.Time         `json:"occurredAt" firestore:"occurredAt"`
	Metadata   map[string]string `json:"metadata,omitempty" firestore:"metadata,omitempty"`
}

// NewCommunicationRecord validates and stamps a record
func NewCommunicationRecord(channel Channel, direction Direction, summary, transcript string) (*CommunicationRecord, error) {
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Unknown communication channel")
	}
	if direction == "" {
		direction = DirectionOutbound
	}
	if direction != DirectionInbound && direction != DirectionOutbound {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Unknown communication direction")
	}
	summary = strings.TrimSpace(summary)
	if summary == "" && strings.TrimSpace(transcript) == "" {
		return nil, shared.NewDomainError("INVALID_COMMUNICATION", "Summary or transcript is required")
	}
	return &CommunicationRecord{
		ID:         uuid.NewString(),
		Channel:    channel,
		Direction:  direction,
		Summary:    summary,
		Transcript: transcript,
		OccurredAt: time.Now().UTC(),
		Metadata:   map[string]string{},
	}, nil
}

// NewSystemRecord creates a timeline entry authored by the CRM. id makes
// repeated writes of the same fact recognisable.
func NewSystemRecord(id, summary string, at time.Time) CommunicationRecord {
	return CommunicationRecord{
		ID:         id,
		Channel:    ChannelSystem,
		Direction:  DirectionInbound,
		Summary:    summary,
		OccurredAt: at.UTC(),
		Metadata:   map[string]string{},
	}
}

// AIProfile is the behavioural profile derived from conversation analysis
type AIProfile struct {
	Personality   string    `json:"personality" firestore:"personality"`
	Preferences   []string  `json:"preferences" firestore:"preferences"`
	BuyingSignals []string  `json:"buyingSignals" firestore:"buyingSignals"`
	Sentiment     string    `json:"sentiment" firestore:"sentiment"`
	Score         int       `json:"score" firestore:"score"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// AgentConfig is a voice-agent configuration document
type AgentConfig struct {
	AgentID      string    `json:"agentId" firestore:"agentId"`
	Name         string    `json:"name" firestore:"name"`
	Voice        string    `json:"voice" firestore:"voice"`
	FirstMessage string    `json:"firstMessage" firestore:"firstMessage"`
	SystemPrompt string    `json:"systemPrompt" firestore:"systemPrompt"`
	Language     string    `json:"language" firestore:"language"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Validate checks the agent configuration
func (a *AgentConfig) Validate() error {
	if strings.TrimSpace(a.AgentID) == "" || strings.ContainsAny(a.AgentID, "/ ") {
		return shared.NewDomainError("INVALID_AGENT_ID", "Agent ID is required and cannot contain slashes or spaces")
	}
	if strings.TrimSpace(a.Name) == "" {
		return shared.NewDomainError("INVALID_AGENT_NAME", "Agent name is required")
	}
	if a.Language == "" {
		a.Language = "es"
	}
	return nil
}

// ClientDocumentPath is the document-store key of a client document
func ClientDocumentPath(tenantID, organizationID, clientID uuid.UUID) string {
	return "tenants/" + tenantID.String() + "/organizations/" + organizationID.String() + "/clients/" + clientID.String()
}

// AgentDocumentPath is the document-store key of a voice-agent configuration
func AgentDocumentPath(tenantID uuid.UUID, agentID string) string {
	return "tenants/" + tenantID.String() + "/agents/elevenlabs/" + agentID
}

// AgentsDocumentPath is the document holding a tenant's voice-agent
// configurations, one field per agent ID
func AgentsDocumentPath(tenantID uuid.UUID) string {
	return "tenants/" + tenantID.String() + "/agents/elevenlabs"
}
