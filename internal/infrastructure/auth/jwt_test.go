package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-characters"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     testSecret,
		Expiration: 24 * time.Hour,
		Issuer:     "client-maria",
	})
}

func newTestInput() TokenInput {
	return TokenInput{
		UserID:         uuid.New(),
		Email:          "a@x.com",
		TenantID:       uuid.New(),
		OrganizationID: uuid.New(),
		Roles:          []string{"owner"},
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	issued, err := svc.Issue(input)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), issued.ExpiresAt, 5*time.Second)

	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.TenantID.String(), claims.TenantID)
	assert.Equal(t, input.OrganizationID.String(), claims.OrganizationID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, []string{"owner"}, claims.Roles)
	assert.Equal(t, "client-maria", claims.Issuer)
	assert.True(t, claims.HasRole("admin", "owner"))
}

func TestIssue_RequiresIdentity(t *testing.T) {
	svc := newTestJWTService()

	input := newTestInput()
	input.TenantID = uuid.Nil
	_, err := svc.Issue(input)
	assert.ErrorIs(t, err, ErrMissingTenantID)

	input = newTestInput()
	input.OrganizationID = uuid.Nil
	_, err = svc.Issue(input)
	assert.ErrorIs(t, err, ErrMissingOrganizationID)

	input = newTestInput()
	input.UserID = uuid.Nil
	_, err = svc.Issue(input)
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestValidate_Expired(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	issued, err := svc.Issue(newTestInput())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.True(t, IsTokenError(err))
}

func TestValidate_WrongSecret(t *testing.T) {
	issued, err := newTestJWTService().Issue(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", Issuer: "client-maria"})
	_, err = other.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	input := newTestInput()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "client-maria",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:         input.UserID.String(),
		TenantID:       input.TenantID.String(),
		OrganizationID: input.OrganizationID.String(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newTestJWTService().Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongIssuer(t *testing.T) {
	other := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
	issued, err := other.Issue(newTestInput())
	require.NoError(t, err)

	_, err = newTestJWTService().Validate(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_MissingOrganizationClaim(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "client-maria",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:   uuid.NewString(),
		TenantID: uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newTestJWTService().Validate(signed)
	assert.ErrorIs(t, err, ErrMissingOrganizationID)
}

func TestValidate_Garbage(t *testing.T) {
	_, err := newTestJWTService().Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = newTestJWTService().Validate(strings.Repeat("a", 10))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestReissue_KeepsTenantSwapsOrganization(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	issued, err := svc.Issue(input)
	require.NoError(t, err)
	old, err := svc.Validate(issued.Token)
	require.NoError(t, err)

	newOrg := uuid.New()
	reissued, err := svc.Reissue(old, newOrg, []string{"member"})
	require.NoError(t, err)

	claims, err := svc.Validate(reissued.Token)
	require.NoError(t, err)
	assert.Equal(t, input.TenantID.String(), claims.TenantID)
	assert.Equal(t, newOrg.String(), claims.OrganizationID)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.Email, claims.Email)
	assert.Equal(t, []string{"member"}, claims.Roles)
	assert.NotEqual(t, old.ID, claims.ID)
}

func TestNewJWTService_DefaultExpiration(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})
	assert.Equal(t, 24*time.Hour, svc.Expiration())
}

func TestIsTokenError(t *testing.T) {
	assert.True(t, IsTokenError(ErrInvalidClaims))
	assert.False(t, IsTokenError(assert.AnError))
}
