package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken          = errors.New("invalid token")
	ErrExpiredToken          = errors.New("token has expired")
	ErrInvalidClaims         = errors.New("invalid token claims")
	ErrTokenNotYetValid      = errors.New("token is not yet valid")
	ErrMissingTenantID       = errors.New("missing tenantId in claims")
	ErrMissingOrganizationID = errors.New("missing organizationId in claims")
	ErrMissingUserID         = errors.New("missing userId in claims")
)

// Claims is the context token payload. The JSON names are part of the
// public token format and must not change.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string   `json:"userId"`
	Email          string   `json:"email"`
	TenantID       string   `json:"tenantId"`
	OrganizationID string   `json:"organizationId"`
	Roles          []string `json:"roles"`
}

// IssuedToken is a signed token plus its expiry
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenInput carries the identity a context token is minted for
type TokenInput struct {
	UserID         uuid.UUID
	Email          string
	TenantID       uuid.UUID
	OrganizationID uuid.UUID
	Roles          []string
}

// JWTService signs and verifies HS256 context tokens. Tokens are stateless:
// nothing is persisted and expiry is enforced by verification alone.
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	expiration := cfg.Expiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: expiration,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
}

// Expiration returns the validity window of issued tokens
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}

// Issue mints a token for the given identity with a fresh validity window.
func (s *JWTService) Issue(input TokenInput) (*IssuedToken, error) {
	if input.TenantID == uuid.Nil {
		return nil, ErrMissingTenantID
	}
	if input.OrganizationID == uuid.Nil {
		return nil, ErrMissingOrganizationID
	}
	if input.UserID == uuid.Nil {
		return nil, ErrMissingUserID
	}

	now := s.now()
	expiresAt := now.Add(s.expiration)
	roles := input.Roles
	if roles == nil {
		roles = []string{}
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:         input.UserID.String(),
		Email:          input.Email,
		TenantID:       input.TenantID.String(),
		OrganizationID: input.OrganizationID.String(),
		Roles:          roles,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// Reissue mints a token that copies the old claims except for the
// organization and roles. The tenant never changes.
func (s *JWTService) Reissue(old *Claims, organizationID uuid.UUID, roles []string) (*IssuedToken, error) {
	tenantID, err := old.TenantUUID()
	if err != nil {
		return nil, ErrInvalidClaims
	}
	userID, err := old.UserUUID()
	if err != nil {
		return nil, ErrInvalidClaims
	}
	return s.Issue(TokenInput{
		UserID:         userID,
		Email:          old.Email,
		TenantID:       tenantID,
		OrganizationID: organizationID,
		Roles:          roles,
	})
}

// Validate verifies signature, algorithm, expiry and issuer, and checks that
// the identity claims are present and well formed.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if claims.OrganizationID == "" {
		return nil, ErrMissingOrganizationID
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if _, err := claims.TenantUUID(); err != nil {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.OrganizationUUID(); err != nil {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// IsTokenError reports whether err came from token verification
func IsTokenError(err error) bool {
	for _, target := range []error{
		ErrInvalidToken, ErrExpiredToken, ErrInvalidClaims, ErrTokenNotYetValid,
		ErrMissingTenantID, ErrMissingOrganizationID, ErrMissingUserID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// TenantUUID parses the tenant ID from claims
func (c *Claims) TenantUUID() (uuid.UUID, error) {
	return uuid.Parse(c.TenantID)
}

// OrganizationUUID parses the organization ID from claims
func (c *Claims) OrganizationUUID() (uuid.UUID, error) {
	return uuid.Parse(c.OrganizationID)
}

// UserUUID parses the user ID from claims
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// HasRole checks if the claims contain any of the given roles
func (c *Claims) HasRole(roles ...string) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// ExpiresAtTime returns the token's expiration time
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}
