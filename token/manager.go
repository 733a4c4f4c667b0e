package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/telco-console/internal/errors"
	"github.com/jrsteele09/telco-console/sessions"
	"github.com/jrsteele09/telco-console/users"
)

// Manager issues and validates the access tokens of the development backend.
type Manager struct {
	signer            Signer
	issuer            string
	revokedCache      RevokedTokenCache
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		revokedCache: NewInMemoryRevokedTokenCache(),
	}
	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

// SigningAlg is the JWS alg of issued tokens, e.g. HS256.
func (m *Manager) SigningAlg() string {
	return m.signer.GetSigningMethod().Alg()
}

// CreateAccessToken signs a token carrying the user's identity claims.
func (m *Manager) CreateAccessToken(user *users.User) (string, error) {
	now := m.nowFunc()
	claims := &sessions.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpiry)),
			ID:        uuid.New().String(),
		},
		Name:              user.DisplayName,
		PreferredUsername: user.Username,
		Role:              user.Role,
		CustomerID:        user.CustomerID,
		BoutiqueID:        user.BoutiqueID,
	}

	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[Manager CreateAccessToken] %w", err)
	}
	return signed, nil
}

// Validate verifies the signature, expiry, issuer and revocation status of
// rawToken. Expired tokens give ErrTokenExpired, every other failure
// ErrInvalidToken.
func (m *Manager) Validate(rawToken string) (*sessions.AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, fmt.Errorf("[Manager Validate] %w: empty token", apperrors.ErrInvalidToken)
	}

	claims := &sessions.AccessClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, m.signer.GetVerificationKey, m.parserOptions()...)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, fmt.Errorf("[Manager Validate] %w", apperrors.ErrTokenExpired)
	}
	if err != nil {
		return nil, fmt.Errorf("[Manager Validate] %w: %w", apperrors.ErrInvalidToken, err)
	}
	if claims.ID != "" && m.revokedCache.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("[Manager Validate] %w: token revoked", apperrors.ErrInvalidToken)
	}
	return claims, nil
}

func (m *Manager) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	return opts
}

// RevokeAccessToken makes a still valid token unusable before it expires.
// Expired tokens need no revocation and are ignored.
func (m *Manager) RevokeAccessToken(rawToken string) error {
	claims, err := m.Validate(rawToken)
	if errors.Is(err, apperrors.ErrTokenExpired) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("[Manager RevokeAccessToken] %w", err)
	}
	if claims.ID == "" {
		return fmt.Errorf("[Manager RevokeAccessToken] %w: token missing jti claim", apperrors.ErrInvalidToken)
	}
	m.revokedCache.Add(claims.ID, claims.ExpiresAt.Time)
	return nil
}

// CleanupRevokedTokens removes expired tokens from the revocation cache
func (m *Manager) CleanupRevokedTokens() {
	m.revokedCache.Cleanup(m.nowFunc())
}
