// Package security implements the fabric's JWT authentication envelope (C8):
// every published message is signed by its publisher and validated by its
// subscriber, with role-based authorization layered on top of signature
// validation. HS256 tokens, issuer/audience/expiration checks, built on
// golang-jwt.
package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config carries the shared signing parameters for a fabric deployment. All
// services that publish or subscribe on the fabric must share the same
// Secret, Issuer, and Audience.
type Config struct {
	Secret     string
	Issuer     string
	Audience   string
	Expiration time.Duration
}

// Claims is the JWT payload minted for every publishing service: its
// identity (Subject) and the roles it is asserting.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Authenticator mints and validates tokens for a single fabric deployment.
type Authenticator struct {
	cfg Config
}

// NewAuthenticator builds an Authenticator from cfg.
func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{cfg: cfg}
}

// Mint issues a signed token asserting service as the subject with roles.
func (a *Authenticator) Mint(service string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   service,
			Issuer:    a.cfg.Issuer,
			Audience:  jwt.ClaimStrings{a.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.Expiration)),
			// ID is a per-publish nonce (jti). Nothing currently checks it
			// for replay, but a future nonce cache would key off it.
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("security: sign token for %s: %w", service, err)
	}
	return signed, nil
}

// Validate parses and verifies a token's signature, issuer, audience, and
// expiry, returning its claims on success. Any failure is reported as
// ErrAuthentication — signature, expiry, issuer, and audience failures are
// not distinguished from one another, matching original_source's single
// SecurityError::Authentication variant.
func (a *Authenticator) Validate(token string) (Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithAudience(a.cfg.Audience),
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(a.cfg.Secret), nil
	}, parserOpts...)
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return claims, nil
}

// Authorize checks that claims carries every role in required. It reports
// ErrAuthorization rather than ErrAuthentication: the token is valid, but
// the bearer lacks sufficient privilege, matching the distinction
// original_source's JwtInterceptor draws between Status::unauthenticated and
// Status::permission_denied.
func Authorize(claims Claims, required ...string) error {
	held := make(map[string]struct{}, len(claims.Roles))
	for _, r := range claims.Roles {
		held[r] = struct{}{}
	}
	for _, r := range required {
		if _, ok := held[r]; !ok {
			return fmt.Errorf("%w: missing role %q", ErrAuthorization, r)
		}
	}
	return nil
}
