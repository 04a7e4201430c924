package integration

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a provider failure
type ErrorKind string

const (
	KindQuotaExceeded      ErrorKind = "quota_exceeded"
	KindRateLimited        ErrorKind = "rate_limited"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindFailure            ErrorKind = "failure"
)

// Code returns the stable error code used in API responses
func (k ErrorKind) Code() string {
	switch k {
	case KindQuotaExceeded:
		return "PROVIDER_QUOTA_EXCEEDED"
	case KindRateLimited:
		return "PROVIDER_RATE_LIMITED"
	case KindInvalidCredentials:
		return "PROVIDER_INVALID_CREDENTIALS"
	default:
		return "PROVIDER_FAILURE"
	}
}

// HTTPStatus maps the kind onto the status returned to our callers
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindQuotaExceeded:
		return http.StatusPaymentRequired
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

const maxProviderMessage = 300

// ProviderError is a failed call to a third-party provider
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the transport error, if any
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status for this error's kind
func (e *ProviderError) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// AsProviderError extracts a *ProviderError from err, if any
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

var (
	quotaMarkers       = []string{"insufficient_quota", "quota", "billing", "credits", "payment required"}
	rateLimitMarkers   = []string{"rate limit", "rate_limit", "ratelimit", "too many requests", "too many", "resource_exhausted"}
	credentialsMarkers = []string{"invalid api key", "invalid_api_key", "api key not valid", "incorrect api key", "unauthorized", "authentication", "permission_denied"}
)

// ClassifyProviderError builds a ProviderError from a provider response.
//
// The status decides first. A 429 is upgraded to quota_exceeded only when the
// body names a quota and no rate limit. Any other status falls back to the
// body text, for providers that answer 400/500 for everything.
func ClassifyProviderError(provider string, status int, body string) *ProviderError {
	lower := strings.ToLower(body)
	kind := KindFailure

	switch {
	case status == http.StatusPaymentRequired:
		kind = KindQuotaExceeded
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindInvalidCredentials
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
		if containsAny(lower, quotaMarkers) && !containsAny(lower, rateLimitMarkers) {
			kind = KindQuotaExceeded
		}
	case containsAny(lower, quotaMarkers):
		kind = KindQuotaExceeded
	case containsAny(lower, rateLimitMarkers):
		kind = KindRateLimited
	case containsAny(lower, credentialsMarkers):
		kind = KindInvalidCredentials
	}

	return &ProviderError{
		Provider:   provider,
		Kind:       kind,
		StatusCode: status,
		Message:    truncate(strings.TrimSpace(body), maxProviderMessage),
	}
}

// TransportError wraps a network-level failure, classified from its text
func TransportError(provider string, err error) *ProviderError {
	pe := ClassifyProviderError(provider, 0, err.Error())
	pe.Err = err
	return pe
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
