package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/pgportal/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const tokenLength = 32 // 256 bits

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	expiry time.Duration
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, expiry time.Duration) *Manager {
	return &Manager{
		repo:   repo,
		expiry: expiry,
	}
}

// Expiry is the lifetime of the tokens this Manager issues.
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Create generates a new refresh token and stores it. Each user holds one
// token per scope; logging in again replaces the previous one.
func (m *Manager) Create(userID, tenantID, scope string) (*StoredRefreshToken, error) {
	if err := m.repo.DeleteByUserID(userID, scope); err != nil {
		return nil, fmt.Errorf("failed to delete existing refresh token: %w", err)
	}

	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rt := &StoredRefreshToken{
		Token:    hex.EncodeToString(tokenBytes),
		UserID:   userID,
		TenantID: tenantID,
		Scope:    scope,
		Iat:      NowTimeFunc(),
	}
	if err := m.repo.Upsert(rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rt, nil
}

// Rotate exchanges a valid token for a new one. The presented token is
// consumed whether or not it was still valid.
func (m *Manager) Rotate(token, scope string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRefreshToken, "unknown token")
	}
	_ = m.repo.Delete(token)

	if rt.Scope != scope {
		return nil, errors.Wrapf(errors.ErrInvalidRefreshToken, "token scope %q, want %q", rt.Scope, scope)
	}
	if m.IsExpired(rt) {
		return nil, errors.Wrapf(errors.ErrInvalidRefreshToken, "token expired")
	}
	return m.Create(rt.UserID, rt.TenantID, rt.Scope)
}

// Revoke removes a refresh token from storage. Unknown tokens are ignored.
func (m *Manager) Revoke(token string) {
	_ = m.repo.Delete(token)
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.expiry
}
