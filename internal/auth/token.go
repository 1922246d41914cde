// Package auth issues and checks bearer tokens, hashes passwords and carries
// the caller's identity through request contexts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers malformed, expired and wrongly signed tokens alike.
var ErrInvalidToken = errors.New("invalid token")

const (
	purposeAccess = "access"
	purposeReset  = "password_reset"
)

// Claims holds the typed JWT payload.
type Claims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager signs access and password-reset tokens with one HS256 secret.
// The purpose claim keeps a reset token from being accepted as a login.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(secret string, accessTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// IssueAccess creates a signed access token for the given user.
func (m *TokenManager) IssueAccess(userID uuid.UUID, role model.Role) (string, error) {
	return m.issue(Claims{UserID: userID.String(), Role: string(role), Purpose: purposeAccess}, m.accessTTL)
}

// IssueReset creates a short-lived password reset token.
func (m *TokenManager) IssueReset(userID uuid.UUID) (string, error) {
	return m.issue(Claims{UserID: userID.String(), Purpose: purposeReset}, m.resetTTL)
}

// ParseAccess validates an access token and returns its subject and role.
func (m *TokenManager) ParseAccess(token string) (uuid.UUID, model.Role, error) {
	claims, err := m.parse(token, purposeAccess)
	if err != nil {
		return uuid.Nil, "", err
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, "", ErrInvalidToken
	}
	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return uuid.Nil, "", ErrInvalidToken
	}

	return id, role, nil
}

// ParseReset validates a reset token and returns its subject.
func (m *TokenManager) ParseReset(token string) (uuid.UUID, error) {
	claims, err := m.parse(token, purposeReset)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

func (m *TokenManager) issue(claims Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) parse(token, purpose string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
