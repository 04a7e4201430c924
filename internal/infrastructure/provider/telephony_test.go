package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestElevenLabsClient_StartCall(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/convai/twilio/outbound-call", r.URL.Path)
		assert.Equal(t, "xi-test", r.Header.Get("xi-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","conversation_id":"conv_1","callSid":"CA1"}`))
	}))
	defer srv.Close()

	client := NewElevenLabsClient(config.ElevenLabsConfig{APIKey: "xi-test", BaseURL: srv.URL, AgentPhoneNumberID: "phn_1"}, time.Second, zaptest.NewLogger(t))
	call, err := client.StartCall(context.Background(), "agent_1", "+34600111222", map[string]string{"lead_name": "Ana"})
	require.NoError(t, err)

	assert.Equal(t, "conv_1", call.ConversationID)
	assert.Equal(t, "initiated", call.Status)
	assert.Equal(t, "agent_1", got["agent_id"])
	assert.Equal(t, "phn_1", got["agent_phone_number_id"])
	assert.Equal(t, "+34600111222", got["to_number"])
	assert.Contains(t, got, "conversation_initiation_client_data")
}

func TestElevenLabsClient_QuotaOnPaymentRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":{"status":"quota_exceeded"}}`))
	}))
	defer srv.Close()

	client := NewElevenLabsClient(config.ElevenLabsConfig{APIKey: "k", BaseURL: srv.URL}, time.Second, zaptest.NewLogger(t))
	_, err := client.StartCall(context.Background(), "agent_1", "+34600111222", nil)

	pe, ok := integration.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, integration.KindQuotaExceeded, pe.Kind)
	assert.Equal(t, http.StatusPaymentRequired, pe.HTTPStatus())
}

func TestElevenLabsClient_SyncAgent(t *testing.T) {
	var got agentPatch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/convai/agents/agent_1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewElevenLabsClient(config.ElevenLabsConfig{APIKey: "k", BaseURL: srv.URL}, time.Second, zaptest.NewLogger(t))
	err := client.SyncAgent(context.Background(), crm.AgentConfig{
		AgentID: "agent_1", Name: "Sofía", Voice: "v1", FirstMessage: "Hola", SystemPrompt: "Vende", Language: "es",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sofía", got.Name)
	assert.Equal(t, "Vende", got.ConversationConfig.Agent.Prompt.Prompt)
	assert.Equal(t, "v1", got.ConversationConfig.TTS.VoiceID)
}

func TestWhatsAppClient_SendText(t *testing.T) {
	var got whatsAppMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewWhatsAppClient(config.WhatsAppConfig{Token: "wa-token", PhoneNumberID: "12345", BaseURL: srv.URL}, time.Second, zaptest.NewLogger(t))
	d, err := client.SendText(context.Background(), "+34 600-111-222", "Hola Ana")
	require.NoError(t, err)

	assert.Equal(t, "wamid.1", d.MessageID)
	assert.Equal(t, "accepted", d.Status)
	assert.Equal(t, "34600111222", got.To)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "Hola Ana", got.Text.Body)
}

func TestWhatsAppClient_MissingMessageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[]}`))
	}))
	defer srv.Close()

	client := NewWhatsAppClient(config.WhatsAppConfig{Token: "t", PhoneNumberID: "1", BaseURL: srv.URL}, time.Second, zaptest.NewLogger(t))
	_, err := client.SendText(context.Background(), "600", "x")
	assert.ErrorIs(t, err, integration.ErrMalformedResponse)
}
