package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	geminiName         = "gemini"
	geminiDefaultModel = "gemini-2.0-flash"
)

// GeminiClient implements integration.LanguageModel with the Google GenAI SDK
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient creates a Gemini client. baseURL overrides the API endpoint
// and is empty in production.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, baseURL string, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  orDefault(cfg.Model, geminiDefaultModel),
		logger: logger,
	}, nil
}

// Name returns the provider name
func (c *GeminiClient) Name() string { return geminiName }

// Complete generates one response for the prompt
func (c *GeminiClient) Complete(ctx context.Context, req integration.CompletionRequest) (*integration.Completion, error) {
	gc := &genai.GenerateContentConfig{}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		gc.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}, gc)
	if err != nil {
		return nil, c.classify(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, integration.ErrMalformedResponse.WithDetails("gemini returned no text")
	}
	return &integration.Completion{Text: text, Provider: geminiName, Model: c.model}, nil
}

func (c *GeminiClient) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		pe := integration.ClassifyProviderError(geminiName, apiErr.Code, apiErr.Status+" "+apiErr.Message)
		c.logger.Warn("Provider returned error",
			zap.String("provider", geminiName),
			zap.Int("status_code", apiErr.Code),
			zap.String("kind", string(pe.Kind)))
		return pe
	}
	c.logger.Warn("Provider call failed", zap.String("provider", geminiName), zap.Error(err))
	return integration.TransportError(geminiName, err)
}

var _ integration.LanguageModel = (*GeminiClient)(nil)
