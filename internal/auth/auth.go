// Package auth resolves the caller's username from a bearer JWT, for
// deployments that run dropit with origin.ModeUsername (spec §4.6):
// quotas key off the authenticated subject instead of the remote IP.
// Admin operations do not use it; they are gated by the per-file admin
// token.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken        = errors.New("auth: invalid token")
	ErrExpiredToken        = errors.New("auth: token has expired")
	ErrInvalidSecretLength = errors.New("auth: secret must be at least 32 characters")
)

// Claims is the JWT payload dropit issues and validates. Subject carries
// the username; dropit has no roles or refresh tokens, unlike the
// control-plane tokens this is modeled on.
type Claims struct {
	jwt.RegisteredClaims
}

// Config configures the JWT verifier.
type Config struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	Secret string
	// Issuer is the expected issuer claim. Default: "dropit".
	Issuer string
	// TokenDuration is the lifetime of tokens minted by Issue. Default: 24h.
	TokenDuration time.Duration
}

// Verifier validates bearer tokens and extracts the subject username.
// It satisfies internal/origin.Identity.
type Verifier struct {
	config Config
}

// New builds a Verifier, applying defaults and rejecting a too-short secret.
func New(config Config) (*Verifier, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if config.Issuer == "" {
		config.Issuer = "dropit"
	}
	if config.TokenDuration == 0 {
		config.TokenDuration = 24 * time.Hour
	}
	return &Verifier{config: config}, nil
}

// Issue mints a token for username, for admins bootstrapping API clients.
func (v *Verifier) Issue(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.config.Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.config.TokenDuration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(v.config.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string, returning its claims.
func (v *Verifier) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.config.Secret), nil
	}, jwt.WithIssuer(v.config.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// bearerToken extracts the token from a "Bearer <token>" Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Username implements origin.Identity: it extracts and validates the
// bearer token and returns its subject claim.
func (v *Verifier) Username(r *http.Request) (string, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return "", false
	}
	claims, err := v.Validate(token)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}
