package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatedRequest struct {
	Email            string `json:"email" binding:"required,email"`
	TenantIdentifier string `json:"tenantIdentifier" binding:"required,slug"`
	Status           string `json:"status" binding:"omitempty,lead_status"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req validatedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ValidationDetails(err))
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		body   string
		status int
		fields []string
	}{
		{"valid", `{"email":"a@x.com","tenantIdentifier":"acme","status":"qualified"}`, http.StatusOK, nil},
		{"upper-case slug normalizes", `{"email":"a@x.com","tenantIdentifier":"Acme"}`, http.StatusOK, nil},
		{"json field names", `{"email":"nope","tenantIdentifier":"a b"}`, http.StatusBadRequest, []string{"email", "tenantIdentifier"}},
		{"unknown status", `{"email":"a@x.com","tenantIdentifier":"acme","status":"closed"}`, http.StatusBadRequest, []string{"status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body)))
			require.Equal(t, tt.status, rec.Code)
			for _, f := range tt.fields {
				assert.Contains(t, rec.Body.String(), `"field":"`+f+`"`)
			}
		})
	}
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}
