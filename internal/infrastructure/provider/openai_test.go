package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var got openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini-2024","choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL}, time.Second, zaptest.NewLogger(t))
	out, err := client.Complete(context.Background(), integration.CompletionRequest{
		System: "Eres un asistente de ventas",
		Prompt: "Hola",
		JSON:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, out.Text)
	assert.Equal(t, "openai", out.Provider)
	assert.Equal(t, "gpt-4o-mini-2024", out.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, openAIDefaultModel, got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestOpenAIClient_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   integration.ErrorKind
	}{
		{"quota", http.StatusTooManyRequests, `{"error":{"code":"insufficient_quota"}}`, integration.KindQuotaExceeded},
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, integration.KindRateLimited},
		{"bad key", http.StatusUnauthorized, `{"error":{"code":"invalid_api_key"}}`, integration.KindInvalidCredentials},
		{"server", http.StatusBadGateway, `upstream`, integration.KindFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewOpenAIClient(config.OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, time.Second, zaptest.NewLogger(t))
			_, err := client.Complete(context.Background(), integration.CompletionRequest{Prompt: "x"})

			pe, ok := integration.AsProviderError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.status, pe.StatusCode)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(config.OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, time.Second, zaptest.NewLogger(t))
	_, err := client.Complete(context.Background(), integration.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, integration.ErrMalformedResponse)
}

func TestOpenAIClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewOpenAIClient(config.OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, time.Second, zaptest.NewLogger(t))
	_, err := client.Complete(context.Background(), integration.CompletionRequest{Prompt: "x"})

	pe, ok := integration.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, integration.KindFailure, pe.Kind)
	assert.Zero(t, pe.StatusCode)
}
