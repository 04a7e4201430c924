package provider

import (
	"context"
	"fmt"

	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Set is the group of adapters the application layer is built with.
// A nil member means the vendor is not configured.
type Set struct {
	Personalization integration.LanguageModel
	Analysis        integration.LanguageModel
	VoiceAgent      integration.VoiceAgentProvider
	WhatsApp        integration.WhatsAppProvider
}

// NewSet builds every configured adapter
func NewSet(ctx context.Context, cfg config.ProvidersConfig, logger *zap.Logger) (*Set, error) {
	set := &Set{}
	var err error

	if set.Personalization, err = newLanguageModel(ctx, cfg.PersonalizationProvider, cfg, logger); err != nil {
		return nil, err
	}
	if set.Analysis, err = newLanguageModel(ctx, cfg.AnalysisProvider, cfg, logger); err != nil {
		return nil, err
	}
	if cfg.ElevenLabs.APIKey != "" {
		set.VoiceAgent = NewElevenLabsClient(cfg.ElevenLabs, cfg.Timeout, logger)
	}
	if cfg.WhatsApp.Token != "" {
		set.WhatsApp = NewWhatsAppClient(cfg.WhatsApp, cfg.Timeout, logger)
	}
	return set, nil
}

func newLanguageModel(ctx context.Context, name string, cfg config.ProvidersConfig, logger *zap.Logger) (integration.LanguageModel, error) {
	switch name {
	case "", openAIName:
		if cfg.OpenAI.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIClient(cfg.OpenAI, cfg.Timeout, logger), nil
	case geminiName:
		if cfg.Gemini.APIKey == "" {
			return nil, nil
		}
		return NewGeminiClient(ctx, cfg.Gemini, "", logger)
	default:
		return nil, fmt.Errorf("unknown language model provider %q", name)
	}
}
