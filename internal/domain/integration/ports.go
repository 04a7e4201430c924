package integration

import (
	"context"

	"github.com/mar-ia/crm/internal/domain/crm"
)

// CompletionRequest is a provider-neutral prompt
type CompletionRequest struct {
	System      string
	Prompt      string
	JSON        bool
	Temperature float32
	MaxTokens   int
}

// Completion is the raw text a model returned
type Completion struct {
	Text     string
	Provider string
	Model    string
}

// LanguageModel completes prompts. Implementations return *ProviderError on failure.
type LanguageModel interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// VoiceAgentProvider places outbound calls through a hosted voice agent
type VoiceAgentProvider interface {
	StartCall(ctx context.Context, agentID, toNumber string, variables map[string]string) (*VoiceAgentCall, error)
	SyncAgent(ctx context.Context, cfg crm.AgentConfig) error
}

// WhatsAppProvider delivers WhatsApp text messages
type WhatsAppProvider interface {
	SendText(ctx context.Context, toNumber, body string) (*WhatsAppDelivery, error)
}
