// Package auth guards the mutating parts of the HTTP API with signed tokens.
//
// Reading the users state is public. Triggering a fetch spends GitHub rate
// limit, so when a JWT secret is configured POST /api/users/fetch requires a
// token issued by `ghusers token`:
//
//	ghusers token --subject ops --ttl 24h
//	curl -X POST -H "Authorization: Bearer <jwt>" localhost:8080/api/users/fetch
//
// TOKEN SHAPE:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:  {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"ops","iss":"github-users","iat":...,"exp":...}
//
// The server verifies a token with nothing but the shared secret, so there is
// no session table to keep in the cache database.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer = "github-users"

	// DefaultTTL is used when Generate is given a non-positive lifetime.
	DefaultTTL = 24 * time.Hour

	minSecretLength = 16
)

// ErrNoSubject is returned for a token that verifies but names nobody.
var ErrNoSubject = errors.New("auth: token has no subject")

var errMalformedHeader = errors.New("auth: malformed Authorization header")

// TokenService signs and verifies HS256 tokens with one shared secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// Generate signs a token for subject that expires after ttl. Zero or less
// means DefaultTTL.
func (s *TokenService) Generate(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrNoSubject
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return s.sign(subject, s.now().Add(ttl))
}

func (s *TokenService) sign(subject string, expiresAt time.Time) (string, error) {
	now := s.now()
	c := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns its subject.
//
// The parser pins the algorithm to HS256 so a token with "alg":"none" or an
// RSA header can't slip through, and requires our issuer and an expiry.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", ErrNoSubject
	}
	return c.Subject, nil
}
