// Package auth issues and checks the bearer tokens that identify callers.
//
// TOKEN FLOW:
//  1. A user, creator or admin logs in with email + password
//  2. The server verifies the bcrypt hash and issues a signed JWT
//  3. The client sends it back as "Authorization: Bearer <jwt>" (or the
//     "token" cookie set at login)
//  4. RequireAuth validates it and puts a model.Principal in the context
//
// The payload carries the account id in "sub" and the account kind in "role".
// Users, creators and admins live in separate tables, so the role is what
// tells the services which table an id belongs to.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/heartline/internal/model"
)

const issuer = "heartline"

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// TokenService signs and validates HS256 tokens with one shared secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; a non-positive ttl falls back to DefaultTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of tokens returned by Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Generate signs a token for the principal with the configured lifetime.
func (s *TokenService) Generate(p model.Principal) (string, error) {
	return s.GenerateWithDuration(p, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. A negative
// duration yields an already-expired token, which tests rely on.
func (s *TokenService) GenerateWithDuration(p model.Principal, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer and expiry and returns the principal.
//
// jwt.WithValidMethods pins HS256 so a token declaring "none" or an RSA
// algorithm is refused before the key func runs.
func (s *TokenService) Validate(tokenStr string) (model.Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Principal{}, errors.New("auth: token expired")
		}
		return model.Principal{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return model.Principal{}, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return model.Principal{}, errors.New("auth: token has no subject")
	}
	role, err := model.ParseRole(string(c.Role))
	if err != nil {
		return model.Principal{}, fmt.Errorf("auth: %w", err)
	}

	return model.Principal{ID: c.Subject, Role: role}, nil
}
