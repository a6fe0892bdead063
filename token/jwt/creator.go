package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/pgportal/internal/utils"
	"github.com/jrsteele09/pgportal/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Scope separates tokens issued by the tenant login from those issued by the
// admin login, so a cookie from one section is never accepted by the other.
type Scope string

const (
	ScopeTenant Scope = "tenant"
	ScopeAdmin  Scope = "admin"
)

// Claims carried by an access token.
type Claims struct {
	jwtlib.RegisteredClaims
	TenantID string         `json:"tenant,omitempty"`
	Role     users.RoleType `json:"role"`
	Scope    Scope          `json:"scope"`
}

// Creator signs access tokens with a shared HMAC secret.
type Creator struct {
	secret []byte
	issuer string
	expiry time.Duration
}

func NewCreator(secret, issuer string, expiry time.Duration) *Creator {
	return &Creator{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
	}
}

// Expiry is the lifetime of the tokens this Creator issues.
func (c *Creator) Expiry() time.Duration {
	return c.expiry
}

// CreateAccessToken issues a token for user in scope.
func (c *Creator) CreateAccessToken(user *users.User, scope Scope) (string, *Claims, error) {
	now := NowTimeFunc()
	claims := &Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.expiry)),
			ID:        uuid.New().String(),
		},
		TenantID: utils.Value(user.TenantID),
		Role:     user.Role,
		Scope:    scope,
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, claims, nil
}
