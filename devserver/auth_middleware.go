package devserver

import (
	"context"
	"net/http"

	"github.com/jrsteele09/pgportal/features"
	"github.com/jrsteele09/pgportal/internal/utils"
	"github.com/jrsteele09/pgportal/tenants"
	"github.com/jrsteele09/pgportal/token/jwt"
	"github.com/jrsteele09/pgportal/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the *session of an authenticated request
const ContextKeySession ContextKey = "session"

// session is what RequireAuth learns about the caller.
type session struct {
	user   *users.User
	claims *jwt.Claims
	tenant *tenants.Tenant // nil in the admin section
}

func sessionFrom(ctx context.Context) *session {
	s, _ := ctx.Value(ContextKeySession).(*session)
	return s
}

// RequireAuth validates the access cookie of scope. Tenant sessions also need
// a live, unsuspended tenant; admin sessions need a platform administrator.
func (s *Server) RequireAuth(scope jwt.Scope) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			accessName, _ := cookieNames(scope)
			raw := cookieValue(r, accessName)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, codeNotAuthenticated, "not signed in")
				return
			}

			claims, err := s.inspector.Introspect(raw, scope)
			if err != nil {
				writeError(w, http.StatusUnauthorized, codeNotAuthenticated, "invalid or expired session")
				return
			}

			user, err := s.repos.Users.GetByID(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, codeNotAuthenticated, "user no longer exists")
				return
			}

			sess := &session{user: user, claims: claims}
			if scope == jwt.ScopeAdmin {
				if !user.IsSuperAdmin() {
					writeError(w, http.StatusForbidden, codeForbidden, "platform administrators only")
					return
				}
			} else {
				tenant, err := s.repos.Tenants.Get(utils.Value(user.TenantID))
				if err != nil {
					writeError(w, http.StatusUnauthorized, codeNotAuthenticated, "tenant no longer exists")
					return
				}
				if tenant.Suspended {
					writeError(w, http.StatusForbidden, codeTenantSuspended, "tenant suspended")
					return
				}
				sess.tenant = tenant
			}

			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeySession, sess)))
		}
	}
}

// RequireFeature refuses requests to a path family the caller's tenant has
// switched off. It must run after RequireAuth(jwt.ScopeTenant).
func (s *Server) RequireFeature(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		if key, gated := features.ResolveFeatureKey(r.URL.Path); gated && sess != nil && sess.tenant != nil {
			if !tenantFlags(sess.tenant).Enabled(key) {
				writeError(w, http.StatusForbidden, codeFeatureDisabled, key.Label()+" is not enabled for this tenant")
				return
			}
		}
		next(w, r)
	}
}

func tenantFlags(t *tenants.Tenant) features.Flags {
	flags := make(features.Flags, len(t.Features))
	for k, v := range t.Features {
		flags[features.Key(k)] = v
	}
	return flags
}
