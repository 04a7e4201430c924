// Package integration drives the AI and telephony providers on behalf of the
// CRM: call scripts, conversation analysis, WhatsApp and voice agents.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrProviderNotConfigured is returned when the vendor a feature needs has no
// credentials
var ErrProviderNotConfigured = shared.NewDomainError("PROVIDER_NOT_CONFIGURED", "Proveedor no configurado")

// callRecorder counts and logs every outbound provider call
type callRecorder struct {
	metrics *telemetry.CRMMetrics
	logger  *zap.Logger
}

func newCallRecorder(metrics *telemetry.CRMMetrics, logger *zap.Logger) callRecorder {
	if metrics == nil {
		metrics = telemetry.NoopCRMMetrics()
	}
	return callRecorder{metrics: metrics, logger: logger}
}

func (r callRecorder) record(ctx context.Context, provider, operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if pe, ok := integration.AsProviderError(err); ok {
			outcome = string(pe.Kind)
		}
		r.logger.Error("Provider call failed",
			zap.String("provider", provider),
			zap.String("operation", operation),
			zap.String("outcome", outcome),
			zap.Error(err))
	}
	r.metrics.ProviderCalls.Inc(ctx,
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome))
}

// complete runs one JSON completion and decodes it into out
func (r callRecorder) complete(ctx context.Context, model integration.LanguageModel, operation string, req integration.CompletionRequest, out any) (*integration.Completion, error) {
	if model == nil {
		return nil, ErrProviderNotConfigured.WithDetails("no language model for " + operation)
	}
	req.JSON = true
	completion, err := model.Complete(ctx, req)
	if err == nil {
		err = decodeModelJSON(completion.Text, out)
	}
	r.record(ctx, model.Name(), operation, err)
	if err != nil {
		return nil, err
	}
	return completion, nil
}

// decodeModelJSON parses a model reply, tolerating a markdown code fence
// around the object
func decodeModelJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return integration.ErrMalformedResponse.WithDetails(fmt.Sprintf("invalid JSON at offset %d", syn.Offset))
		}
		return integration.ErrMalformedResponse.WithDetails(err.Error())
	}
	return nil
}
