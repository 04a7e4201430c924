package provider

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mar-ia/crm/internal/domain/integration"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// newRestyClient builds the shared JSON client. Calls are never retried:
// a failure surfaces to the caller as a ProviderError.
func newRestyClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// checkResponse turns a failed resty exchange into a ProviderError
func checkResponse(provider string, resp *resty.Response, err error, logger *zap.Logger) error {
	if err != nil {
		logger.Warn("Provider call failed",
			zap.String("provider", provider),
			zap.Error(err))
		return integration.TransportError(provider, err)
	}
	if resp.IsError() {
		pe := integration.ClassifyProviderError(provider, resp.StatusCode(), resp.String())
		logger.Warn("Provider returned error",
			zap.String("provider", provider),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("kind", string(pe.Kind)))
		return pe
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
