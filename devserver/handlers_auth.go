package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/pgportal/auth"
	"github.com/jrsteele09/pgportal/internal/utils"
	"github.com/jrsteele09/pgportal/tenants"
	"github.com/jrsteele09/pgportal/token/jwt"
	"github.com/jrsteele09/pgportal/users"
	"github.com/rs/zerolog/log"
)

// sessionResponse is the body of every session endpoint.
type sessionResponse struct {
	User       *users.User `json:"user,omitempty"`
	Redirect   bool        `json:"redirect,omitempty"`
	TenantSlug string      `json:"tenantSlug,omitempty"`
}

// LoginHandler signs a user in to scope. A tenant user who logs in on another
// tenant's address is told where to go instead of being signed in.
func (s *Server) LoginHandler(scope jwt.Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		user, err := s.repos.Users.GetByEmail(normaliseEmail(req.Email))
		if err != nil || !users.CheckPasswordHash(req.Password, user.PasswordHash) {
			writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid email or password")
			return
		}

		if scope == jwt.ScopeAdmin {
			if !user.IsSuperAdmin() {
				writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid email or password")
				return
			}
			s.startSession(w, r, user, scope, "", http.StatusOK)
			return
		}

		if user.IsSuperAdmin() {
			writeError(w, http.StatusForbidden, codeForbidden, "platform administrators sign in to the admin console")
			return
		}

		home, err := s.repos.Tenants.Get(utils.Value(user.TenantID))
		if err != nil {
			writeError(w, http.StatusNotFound, codeTenantNotFound, "tenant not found")
			return
		}
		if slug := tenantSlugFromRequest(r, req.TenantSlug); slug != home.Slug {
			log.Debug().Str("requested", slug).Str("home", home.Slug).Msg("login redirected to home tenant")
			writeJSON(w, http.StatusOK, sessionResponse{Redirect: true, TenantSlug: home.Slug})
			return
		}
		if home.Suspended {
			writeError(w, http.StatusForbidden, codeTenantSuspended, "tenant suspended")
			return
		}
		s.startSession(w, r, user, scope, home.Slug, http.StatusOK)
	}
}

// SignupHandler registers a business and its owner, then signs the owner in.
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.SignupRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.Email = normaliseEmail(req.Email)
		req.TenantSlug = tenants.SanitizeSlug(req.TenantSlug)
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}

		if _, err := s.repos.Users.GetByEmail(req.Email); err == nil {
			writeError(w, http.StatusConflict, codeEmailTaken, "email already registered")
			return
		}
		if _, err := s.repos.Tenants.GetBySlug(req.TenantSlug); err == nil {
			writeError(w, http.StatusConflict, codeTenantSlugTaken, "tenant slug already taken")
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			log.Err(err).Msg("failed to hash password")
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to create account")
			return
		}

		tenant := &tenants.Tenant{
			ID:        uuid.New().String(),
			Slug:      req.TenantSlug,
			Name:      strings.TrimSpace(req.TenantName),
			Plan:      defaultPlan,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repos.Tenants.Upsert(tenant); err != nil {
			writeError(w, http.StatusConflict, codeTenantSlugTaken, err.Error())
			return
		}

		owner := &users.User{
			Email:        req.Email,
			Name:         strings.TrimSpace(req.Name),
			Role:         users.RoleOwner,
			TenantID:     utils.Ptr(tenant.ID),
			PasswordHash: hash,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.repos.Users.Upsert(owner); err != nil {
			_ = s.repos.Tenants.Delete(tenant.ID)
			log.Err(err).Msg("failed to store owner")
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to create account")
			return
		}

		log.Info().Str("tenant", tenant.Slug).Str("owner", owner.Email).Msg("tenant registered")
		s.startSession(w, r, owner, jwt.ScopeTenant, tenant.Slug, http.StatusCreated)
	}
}

// MeHandler answers with the user behind the session cookie.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		writeJSON(w, http.StatusOK, sessionResponse{User: sess.user.Public()})
	}
}

// RefreshHandler rotates the refresh cookie of scope and issues a new access
// cookie. A refresh token is only ever accepted once.
func (s *Server) RefreshHandler(scope jwt.Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, refreshName := cookieNames(scope)
		presented := cookieValue(r, refreshName)
		if presented == "" {
			writeError(w, http.StatusUnauthorized, codeSessionExpired, "no refresh token")
			return
		}

		rt, err := s.refresh.Rotate(presented, string(scope))
		if err != nil {
			s.clearSessionCookies(w, r, scope)
			writeError(w, http.StatusUnauthorized, codeSessionExpired, "refresh token rejected")
			return
		}

		user, err := s.repos.Users.GetByID(rt.UserID)
		if err != nil {
			s.refresh.Revoke(rt.Token)
			s.clearSessionCookies(w, r, scope)
			writeError(w, http.StatusUnauthorized, codeSessionExpired, "user no longer exists")
			return
		}

		access, _, err := s.tokens.CreateAccessToken(user, scope)
		if err != nil {
			log.Err(err).Msg("failed to create access token")
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to refresh session")
			return
		}
		s.setSessionCookies(w, r, scope, access, rt.Token)
		writeJSON(w, http.StatusOK, sessionResponse{User: user.Public()})
	}
}

// LogoutHandler revokes both tokens of scope and clears the cookies. Without
// any session cookie of that scope it answers 401.
func (s *Server) LogoutHandler(scope jwt.Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessName, refreshName := cookieNames(scope)
		access, refreshToken := cookieValue(r, accessName), cookieValue(r, refreshName)
		if access == "" && refreshToken == "" {
			writeError(w, http.StatusUnauthorized, codeNotAuthenticated, "not signed in")
			return
		}

		if claims, err := s.inspector.Introspect(access, scope); err == nil && claims.ExpiresAt != nil {
			s.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
		}
		if refreshToken != "" {
			s.refresh.Revoke(refreshToken)
		}
		s.clearSessionCookies(w, r, scope)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *users.User, scope jwt.Scope, tenantSlug string, status int) {
	access, _, err := s.tokens.CreateAccessToken(user, scope)
	if err != nil {
		log.Err(err).Msg("failed to create access token")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to start session")
		return
	}
	rt, err := s.refresh.Create(user.ID, utils.Value(user.TenantID), string(scope))
	if err != nil {
		log.Err(err).Msg("failed to create refresh token")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to start session")
		return
	}

	s.setSessionCookies(w, r, scope, access, rt.Token)
	writeJSON(w, status, sessionResponse{User: user.Public(), TenantSlug: tenantSlug})
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
