package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGeminiClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hola, soy Sofía"}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), config.GeminiConfig{APIKey: "g-test"}, srv.URL, zaptest.NewLogger(t))
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), integration.CompletionRequest{System: "s", Prompt: "p", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "Hola, soy Sofía", out.Text)
	assert.Equal(t, "gemini", out.Provider)
	assert.Equal(t, geminiDefaultModel, out.Model)
}

func TestGeminiClient_ResourceExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), config.GeminiConfig{APIKey: "g-test"}, srv.URL, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), integration.CompletionRequest{Prompt: "p"})
	pe, ok := integration.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, integration.KindRateLimited, pe.Kind)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), config.GeminiConfig{}, "", zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewSet(t *testing.T) {
	set, err := NewSet(context.Background(), config.ProvidersConfig{
		OpenAI:   config.OpenAIConfig{APIKey: "sk"},
		WhatsApp: config.WhatsAppConfig{Token: "t"},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "openai", set.Personalization.Name())
	assert.Equal(t, "openai", set.Analysis.Name())
	assert.Nil(t, set.VoiceAgent)
	assert.NotNil(t, set.WhatsApp)

	_, err = NewSet(context.Background(), config.ProvidersConfig{PersonalizationProvider: "mistral"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
