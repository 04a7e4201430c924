package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/infrastructure/auth"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars!",
		Expiration: time.Hour,
		Issuer:     "client-maria-test",
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService, roles ...string) (string, auth.TokenInput) {
	t.Helper()
	input := auth.TokenInput{
		UserID:         uuid.New(),
		Email:          "ana@acme.test",
		TenantID:       uuid.New(),
		OrganizationID: uuid.New(),
		Roles:          roles,
	}
	issued, err := svc.Issue(input)
	require.NoError(t, err)
	return issued.Token, input
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}
