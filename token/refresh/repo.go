package refresh

import (
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a random string) in an HTTP-only
// cookie. All other fields are server-side metadata.
type StoredRefreshToken struct {
	Token    string    // The actual random token string (sent to client)
	UserID   string    // Server-side metadata
	TenantID string    // Empty for platform administrators
	Scope    string    // "tenant" or "admin", the login that issued it
	Iat      time.Time // Issued at time
}

// Repo manages server-side storage of refresh token metadata keyed by the token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	DeleteByUserID(userID, scope string) error
	List(offset, limit int) ([]*StoredRefreshToken, error)
}
