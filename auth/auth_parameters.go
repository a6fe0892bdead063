package auth

import (
	"github.com/jrsteele09/pgportal/users"
)

// Session endpoints. The admin twins live under /admin.
const (
	LoginPath       = "/auth/login"
	SignupPath      = "/auth/signup"
	MePath          = "/auth/me"
	LogoutPath      = "/auth/logout"
	AdminLoginPath  = "/admin/auth/login"
	AdminMePath     = "/admin/auth/me"
	AdminLogoutPath = "/admin/auth/logout"
)

// LoginRequest is the body of both login endpoints. TenantSlug is omitted in
// the admin section and when no tenant can be resolved.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	TenantSlug string `json:"tenantSlug,omitempty"`
}

// SignupRequest registers a new PG business together with its owner account.
type SignupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone,omitempty"`
	TenantName string `json:"tenantName"`
	TenantSlug string `json:"tenantSlug"`
}

// sessionResponse covers every answer of the session endpoints. Login answers
// either {user} or {redirect, tenantSlug}; signup answers {user, tenantSlug}.
type sessionResponse struct {
	User       *users.User `json:"user"`
	Redirect   bool        `json:"redirect"`
	TenantSlug string      `json:"tenantSlug"`
}
