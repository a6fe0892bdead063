package devserver

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/jrsteele09/pgportal/features"
	"github.com/jrsteele09/pgportal/tenants"
	"github.com/rs/zerolog/log"
)

type flagsResponse struct {
	Features map[string]bool `json:"features"`
}

// FeatureFlagsHandler answers with the caller's tenant configuration. Only
// features the tenant explicitly configured are listed.
func (s *Server) FeatureFlagsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		flags := maps.Clone(sess.tenant.Features)
		if flags == nil {
			flags = map[string]bool{}
		}
		writeJSON(w, http.StatusOK, flagsResponse{Features: flags})
	}
}

// AdminTenantsListHandler lists tenants, optionally paged with offset and limit.
func (s *Server) AdminTenantsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := s.repos.Tenants.List(max(offset, 0), limit)
		if err != nil {
			log.Err(err).Msg("failed to list tenants")
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to list tenants")
			return
		}
		if list == nil {
			list = []*tenants.Tenant{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) AdminTenantGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := s.tenantFromPath(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

type tenantPatch struct {
	Name      *string `json:"name"`
	Plan      *string `json:"plan"`
	Suspended *bool   `json:"suspended"`
}

// AdminTenantUpdateHandler renames, re-plans or suspends a tenant.
func (s *Server) AdminTenantUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := s.tenantFromPath(w, r)
		if !ok {
			return
		}
		var patch tenantPatch
		if !decodeJSON(w, r, &patch) {
			return
		}

		updated := *t
		if patch.Name != nil {
			if strings.TrimSpace(*patch.Name) == "" {
				writeError(w, http.StatusBadRequest, codeValidation, "name cannot be empty")
				return
			}
			updated.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Plan != nil {
			updated.Plan = *patch.Plan
		}
		if patch.Suspended != nil {
			updated.Suspended = *patch.Suspended
		}
		s.saveTenant(w, &updated)
	}
}

type featuresPatch struct {
	Features map[string]bool `json:"features"`
}

// AdminTenantFeaturesHandler merges feature switches into a tenant's
// configuration. Unknown feature keys are refused.
func (s *Server) AdminTenantFeaturesHandler() http.HandlerFunc {
	known := features.GatedKeys()
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := s.tenantFromPath(w, r)
		if !ok {
			return
		}
		var patch featuresPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		for k := range patch.Features {
			if !slices.Contains(known, features.Key(k)) {
				writeError(w, http.StatusBadRequest, codeValidation, fmt.Sprintf("unknown feature %q", k))
				return
			}
		}

		updated := *t
		updated.Features = maps.Clone(t.Features)
		if updated.Features == nil {
			updated.Features = make(map[string]bool, len(patch.Features))
		}
		maps.Copy(updated.Features, patch.Features)
		log.Info().Str("tenant", t.Slug).Interface("features", patch.Features).Msg("tenant features updated")
		s.saveTenant(w, &updated)
	}
}

// saveTenant stores a modified copy. Tenants handed out earlier are never
// mutated in place, so in-flight requests keep a consistent view.
func (s *Server) saveTenant(w http.ResponseWriter, t *tenants.Tenant) {
	if err := s.repos.Tenants.Upsert(t); err != nil {
		log.Err(err).Str("tenant", t.ID).Msg("failed to update tenant")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to update tenant")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) tenantFromPath(w http.ResponseWriter, r *http.Request) (*tenants.Tenant, bool) {
	t, err := s.repos.Tenants.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, codeTenantNotFound, "tenant not found")
		return nil, false
	}
	return t, true
}
