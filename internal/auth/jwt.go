// Package auth provides token signing/verification, password hashing and the
// token gate that protects identity routes.
//
// TOKEN FLOW:
//  1. POST /user/login succeeds → TokenService.Generate signs {id, iat, exp, iss}
//  2. The client keeps the token and sends it in the Authorization header
//  3. RequireToken validates it on protected routes and puts the user id in
//     the request context
//
// Tokens are stateless HS256 JWTs: validity is decided by signature and
// expiry alone, nothing is stored server-side.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/user-auth/internal/apperror"
)

const (
	// DefaultTokenTTL is how long an issued token stays valid.
	DefaultTokenTTL = time.Hour

	issuer          = "user-auth"
	minSecretLength = 16
)

// ErrSecretNotConfigured is returned by every TokenService operation when the
// service was built without a signing secret. It is a forbidden-class error.
var ErrSecretNotConfigured = apperror.Forbidden("signing secret is not configured")

// TokenService handles JWT creation and validation.
//
// A TokenService built with an empty secret is "disabled": it exists so the
// server can start, but it refuses to sign or verify anything.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService.
//
// An empty secret yields a disabled service. A non-empty secret shorter than
// 16 characters is rejected. ttl <= 0 falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret != "" && len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Enabled reports whether a signing secret is configured.
func (s *TokenService) Enabled() bool {
	return len(s.secret) > 0
}

// TTL returns the lifetime of tokens produced by Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Claims is the JWT payload: the user id under "id" plus the registered
// iat/exp/iss claims.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Generate signs a new token for userID that expires after the service TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Negative
// durations produce already-expired tokens, which tests rely on.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrSecretNotConfigured
	}
	if userID == "" {
		return "", fmt.Errorf("auth: user id must not be empty")
	}

	now := s.now()
	c := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
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

// Validate parses and verifies a token string and returns its claims.
//
// Checks: HS256 only, signature, issuer, and a present, unexpired exp claim.
// Every failure is reported as apperror.ErrUnauthorized except a disabled
// service, which reports ErrSecretNotConfigured.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	if !s.Enabled() {
		return nil, ErrSecretNotConfigured
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: %w", apperror.Unauthorized("token expired"))
		}
		return nil, fmt.Errorf("auth: %w: %v", apperror.Unauthorized("invalid token"), err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: %w", apperror.Unauthorized("invalid token claims"))
	}
	if c.UserID == "" {
		return nil, fmt.Errorf("auth: %w", apperror.Unauthorized("token has no user id"))
	}

	return c, nil
}
