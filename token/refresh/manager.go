package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/telco-console/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ManagerConfig is the part of the server configuration the manager reads.
type ManagerConfig interface {
	GetRefreshTokenLength() int
	GetRefreshTokenTTL() time.Duration
}

// Manager issues, validates and rotates the opaque refresh tokens handed out
// by the development backend.
type Manager struct {
	repo   Repo
	config ManagerConfig
}

func NewManager(repo Repo, cfg ManagerConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token for userID, replacing any previous one.
func (m *Manager) Create(userID string) (string, error) {
	if existing, err := m.repo.GetByUserID(userID); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", fmt.Errorf("[Manager Create] failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("[Manager Create] failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("[Manager Create] failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Rotate validates token and swaps it for a new one. The old token is
// unusable afterwards whether or not rotation succeeds.
func (m *Manager) Rotate(token string) (userID, newToken string, err error) {
	stored, err := m.repo.Get(token)
	if err != nil || stored == nil {
		return "", "", fmt.Errorf("[Manager Rotate] %w", apperrors.ErrInvalidRefreshToken)
	}
	if m.IsExpired(stored) {
		_ = m.repo.Delete(token)
		return "", "", fmt.Errorf("[Manager Rotate] %w", apperrors.ErrTokenExpired)
	}

	newToken, err = m.Create(stored.UserID)
	if err != nil {
		return "", "", err
	}
	return stored.UserID, newToken, nil
}

func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

// Revoke deletes token. Unknown tokens are ignored.
func (m *Manager) Revoke(token string) {
	_ = m.repo.Delete(token)
}

func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenTTL()
}
