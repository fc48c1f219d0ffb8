// Package auth validates the access tokens presented to the backoffice API.
// Tokens are issued by the identity service; this package only verifies them.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeAccess is the only token type accepted by the API
const TokenTypeAccess = "access"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims are the claims of a backoffice access token
type Claims struct {
	jwt.RegisteredClaims
	UserID              string   `json:"user_id"`
	Username            string   `json:"username"`
	Role                string   `json:"role"`
	SupervisedCountries []string `json:"supervised_countries,omitempty"`
	// TokenType may be omitted; refresh tokens are rejected
	TokenType string `json:"token_type,omitempty"`
}

// Actor converts the claims to the identity used by application services
func (c *Claims) Actor() (identity.Actor, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return identity.Actor{}, ErrMissingUserID
	}

	countries := make([]string, 0, len(c.SupervisedCountries))
	for _, code := range c.SupervisedCountries {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			countries = append(countries, code)
		}
	}

	return identity.Actor{
		UserID:              userID,
		Username:            c.Username,
		Role:                strings.ToUpper(c.Role),
		SupervisedCountries: countries,
	}, nil
}

// TokenValidator verifies HS256 access tokens
type TokenValidator struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewTokenValidator creates a validator for the configured secret. When an
// issuer is configured, tokens must carry it.
func NewTokenValidator(cfg config.JWTConfig) *TokenValidator {
	return &TokenValidator{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		leeway: 30 * time.Second,
	}
}

// Validate parses tokenString and returns its claims
func (v *TokenValidator) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	}

	if claims.TokenType != "" && claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// ValidateActor validates tokenString and returns the actor it names
func (v *TokenValidator) ValidateActor(tokenString string) (identity.Actor, error) {
	claims, err := v.Validate(tokenString)
	if err != nil {
		return identity.Actor{}, err
	}
	return claims.Actor()
}
