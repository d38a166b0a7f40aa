// Package auth implements the stateless session token issuer. Tokens bind
// (subject kind, subject reference, conversation, participant) with no
// server-side session state; lifetime is bounded by TTL only.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
)

// SessionClaims are the parsed claims of a participation session token.
type SessionClaims struct {
	Kind           domain.SubjectKind
	SubjectID      uuid.UUID
	ConversationID uuid.UUID
	PID            int32
	ExternalID     string // set only for external-identified subjects
}

// TokenManager mints and parses signed HS256 session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager.
// secret must be at least 32 characters for HS256 security.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

type sessionJWTClaims struct {
	jwt.RegisteredClaims
	Kind           string `json:"knd"`
	ConversationID string `json:"cid"`
	PID            int32  `json:"pid"`
	ExternalID     string `json:"xid,omitempty"`
}

// Issue creates a signed token for the given session claims. Deterministic
// modulo the embedded issue time.
func (m *TokenManager) Issue(c SessionClaims) (string, error) {
	now := time.Now()
	claims := sessionJWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.SubjectID.String(),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Kind:           c.Kind.String(),
		ConversationID: c.ConversationID.String(),
		PID:            c.PID,
		ExternalID:     c.ExternalID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse validates a session token and returns its claims.
func (m *TokenManager) Parse(tokenString string) (SessionClaims, error) {
	if tokenString == "" {
		return SessionClaims{}, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &sessionJWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return SessionClaims{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*sessionJWTClaims)
	if !ok || !token.Valid {
		return SessionClaims{}, fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != m.issuer {
		return SessionClaims{}, fmt.Errorf("invalid issuer: expected %s, got %s", m.issuer, claims.Issuer)
	}

	kind, err := domain.ParseSubjectKind(claims.Kind)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("invalid kind claim: %w", err)
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("invalid subject UUID: %w", err)
	}

	conversationID, err := uuid.Parse(claims.ConversationID)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("invalid conversation UUID: %w", err)
	}

	return SessionClaims{
		Kind:           kind,
		SubjectID:      subjectID,
		ConversationID: conversationID,
		PID:            claims.PID,
		ExternalID:     claims.ExternalID,
	}, nil
}
