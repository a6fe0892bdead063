package devserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/pgportal/tenants"
	"github.com/jrsteele09/pgportal/token/jwt"
	"github.com/rs/zerolog/log"
)

// Session cookie names. Each section keeps its own pair so an administrator
// can be signed in to the admin console and a tenant at the same time.
const (
	accessCookie       = "access_token"
	refreshCookie      = "refresh_token"
	adminAccessCookie  = "admin_access_token"
	adminRefreshCookie = "admin_refresh_token"
)

// Error codes sent in the error envelope.
const (
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeNotAuthenticated   = "NOT_AUTHENTICATED"
	codeSessionExpired     = "SESSION_EXPIRED"
	codeEmailTaken         = "EMAIL_TAKEN"
	codeTenantNotFound     = "TENANT_NOT_FOUND"
	codeTenantSlugTaken    = "TENANT_SLUG_TAKEN"
	codeTenantSuspended    = "TENANT_SUSPENDED"
	codeFeatureDisabled    = "FEATURE_DISABLED"
	codeForbidden          = "FORBIDDEN"
	codeValidation         = "VALIDATION_FAILED"
	codeNotFound           = "NOT_FOUND"
	codeInternal           = "INTERNAL_ERROR"
)

func cookieNames(scope jwt.Scope) (access, refresh string) {
	if scope == jwt.ScopeAdmin {
		return adminAccessCookie, adminRefreshCookie
	}
	return accessCookie, refreshCookie
}

func (s *Server) setSessionCookies(w http.ResponseWriter, r *http.Request, scope jwt.Scope, accessToken, refreshToken string) {
	access, refresh := cookieNames(scope)
	s.setCookie(w, r, access, accessToken, s.tokens.Expiry())
	s.setCookie(w, r, refresh, refreshToken, s.refresh.Expiry())
}

func (s *Server) clearSessionCookies(w http.ResponseWriter, r *http.Request, scope jwt.Scope) {
	access, refresh := cookieNames(scope)
	s.setCookie(w, r, access, "", -1)
	s.setCookie(w, r, refresh, "", -1)
}

// setCookie writes an HTTP-only session cookie. A negative ttl deletes it.
func (s *Server) setCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// tenantSlugFromRequest resolves the tenant a login is aimed at. The slug the
// client sends wins, then the calling page's origin, then the API host itself.
func tenantSlugFromRequest(r *http.Request, bodySlug string) string {
	if slug := tenants.SanitizeSlug(bodySlug); slug != "" {
		return slug
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		if o, err := url.Parse(origin); err == nil {
			if slug, ok := tenants.Resolve(o); ok {
				return slug
			}
		}
	}
	slug, _ := tenants.Resolve(&url.URL{Host: r.Host, RawQuery: r.URL.RawQuery})
	return slug
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// decodeJSON reads the request body into v, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "malformed JSON body")
		return false
	}
	return true
}
