// Package service holds the operator-facing session layer: validating the
// shared operator key and exchanging it for short-lived JWT sessions used
// by the HTTP ops endpoints.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warrantd/warrant/internal/sign"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
)

// DefaultSessionTTL bounds an issued operator session.
const DefaultSessionTTL = 8 * time.Hour

// OperatorPrincipal identifies an authenticated operator session.
type OperatorPrincipal struct {
	Subject string
}

// OpsService validates operator credentials and mints session tokens. The
// operator key itself is never stored; only its SHA-256 hash.
type OpsService struct {
	keyHash   string
	jwtSecret []byte
}

// NewOpsService builds the service from the configured operator key hash
// (hex SHA-256) and the JWT signing secret.
func NewOpsService(keyHash, jwtSecret string) *OpsService {
	return &OpsService{
		keyHash:   keyHash,
		jwtSecret: []byte(jwtSecret),
	}
}

// ValidateOperatorKey checks the raw operator key against the configured
// hash.
func (s *OpsService) ValidateOperatorKey(ctx context.Context, rawKey string) error {
	if s.keyHash == "" || rawKey == "" {
		return ErrInvalidCredentials
	}
	if !sign.Equal(HashKey(rawKey), s.keyHash) {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueSession creates a signed session token for an operator.
func (s *OpsService) IssueSession(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "warrant",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSession verifies a session token and returns the operator it
// identifies.
func (s *OpsService) ValidateSession(ctx context.Context, tokenStr string) (*OperatorPrincipal, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidCredentials
	}

	if !token.Valid {
		return nil, ErrInvalidCredentials
	}

	return &OperatorPrincipal{Subject: claims.Subject}, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// HashKey returns the hex SHA-256 of a raw operator key. The CLI uses it
// when writing config; the service uses it when validating.
func HashKey(rawKey string) string {
	h := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(h[:])
}
