package provider

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	openAIName         = "openai"
	openAIDefaultURL   = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-4o-mini"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float32               `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIClient implements integration.LanguageModel over the chat completions API
type OpenAIClient struct {
	http   *resty.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient creates an OpenAI client
func NewOpenAIClient(cfg config.OpenAIConfig, timeout time.Duration, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		http: newRestyClient(orDefault(cfg.BaseURL, openAIDefaultURL), timeout).
			SetAuthToken(cfg.APIKey),
		model:  orDefault(cfg.Model, openAIDefaultModel),
		logger: logger,
	}
}

// Name returns the provider name
func (c *OpenAIClient) Name() string { return openAIName }

// Complete sends one system+user exchange and returns the assistant text
func (c *OpenAIClient) Complete(ctx context.Context, req integration.CompletionRequest) (*integration.Completion, error) {
	body := openAIChatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, openAIMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, openAIMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		body.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	var out openAIChatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/chat/completions")
	if err := checkResponse(openAIName, resp, err, c.logger); err != nil {
		return nil, err
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, integration.ErrMalformedResponse.WithDetails("openai returned no choices")
	}
	return &integration.Completion{
		Text:     out.Choices[0].Message.Content,
		Provider: openAIName,
		Model:    orDefault(out.Model, c.model),
	}, nil
}

var _ integration.LanguageModel = (*OpenAIClient)(nil)
