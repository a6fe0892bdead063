package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/pgportal/internal/utils"
	"github.com/jrsteele09/pgportal/resources"
	"github.com/jrsteele09/pgportal/users"
	"github.com/rs/zerolog/log"
)

// partitionFunc picks the record partition a request works on.
type partitionFunc func(*session) string

func tenantPartition(sess *session) string {
	return sess.tenant.ID
}

func platformPartition(*session) string {
	return platformScope
}

// ListRecordsHandler answers with the whole family as a JSON array.
func (s *Server) ListRecordsHandler(family string, partition partitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.records.list(partition(sessionFrom(r.Context())), family))
	}
}

func (s *Server) GetRecordHandler(family string, partition partitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := s.records.get(partition(sessionFrom(r.Context())), family, r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "record not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) CreateRecordHandler(family string, partition partitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec record
		if !decodeJSON(w, r, &rec) {
			return
		}
		if rec == nil {
			writeError(w, http.StatusBadRequest, codeValidation, "a JSON object is required")
			return
		}
		writeJSON(w, http.StatusCreated, s.records.create(partition(sessionFrom(r.Context())), family, rec))
	}
}

func (s *Server) UpdateRecordHandler(family string, partition partitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch record
		if !decodeJSON(w, r, &patch) {
			return
		}
		rec, ok := s.records.update(partition(sessionFrom(r.Context())), family, r.PathValue("id"), patch)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "record not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) DeleteRecordHandler(family string, partition partitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.records.delete(partition(sessionFrom(r.Context())), family, r.PathValue("id")) {
			writeError(w, http.StatusNotFound, codeNotFound, "record not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DashboardSummaryHandler derives the overview counters from the stored records.
func (s *Server) DashboardSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := sessionFrom(r.Context()).tenant.ID

		summary := resources.DashboardSummary{
			Residents: s.records.count(tenantID, resources.ResidentsPath),
			Rooms:     s.records.count(tenantID, resources.RoomsPath),
		}
		for _, bed := range s.records.list(tenantID, resources.BedsPath) {
			if resident, _ := bed["residentId"].(string); resident != "" {
				summary.OccupiedBeds++
			} else {
				summary.VacantBeds++
			}
		}
		for _, c := range s.records.list(tenantID, resources.ComplaintsPath) {
			if status, _ := c["status"].(string); status != "resolved" {
				summary.OpenComplaints++
			}
		}
		for _, p := range s.records.list(tenantID, resources.RentPaymentsPath) {
			amount, _ := p["amount"].(float64)
			if status, _ := p["status"].(string); status == "paid" {
				summary.RentCollected += amount
			} else {
				summary.RentOutstanding += amount
			}
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// UsersListHandler lists the accounts of the caller's tenant.
func (s *Server) UsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.repos.Users.ListByTenant(sessionFrom(r.Context()).tenant.ID)
		if err != nil {
			log.Err(err).Msg("failed to list users")
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to list users")
			return
		}
		out := make([]*users.User, 0, len(list))
		for _, u := range list {
			out = append(out, u.Public())
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type newUserRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Role     users.RoleType `json:"role"`
}

var assignableRoles = map[users.RoleType]bool{
	users.RoleManager:  true,
	users.RoleStaff:    true,
	users.RoleResident: true,
}

// UsersCreateHandler adds an account to the caller's tenant. Only owners and
// managers may do so, and nobody can create another owner or an administrator.
func (s *Server) UsersCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		if sess.user.Role != users.RoleOwner && sess.user.Role != users.RoleManager {
			writeError(w, http.StatusForbidden, codeForbidden, "only owners and managers can add users")
			return
		}

		var req newUserRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.Email = normaliseEmail(req.Email)
		switch {
		case strings.TrimSpace(req.Name) == "" || req.Email == "":
			writeError(w, http.StatusBadRequest, codeValidation, "name and email are required")
			return
		case !assignableRoles[req.Role]:
			writeError(w, http.StatusBadRequest, codeValidation, "role must be manager, staff or resident")
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}
		if _, err := s.repos.Users.GetByEmail(req.Email); err == nil {
			writeError(w, http.StatusConflict, codeEmailTaken, "email already registered")
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to create user")
			return
		}
		u := &users.User{
			Email:        req.Email,
			Name:         strings.TrimSpace(req.Name),
			Role:         req.Role,
			TenantID:     utils.Ptr(sess.tenant.ID),
			PasswordHash: hash,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.repos.Users.Upsert(u); err != nil {
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to create user")
			return
		}
		writeJSON(w, http.StatusCreated, u.Public())
	}
}

func (s *Server) UserGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.tenantUserFromPath(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, u.Public())
	}
}

// UserDeleteHandler removes an account of the caller's tenant. Owners cannot
// be removed this way.
func (s *Server) UserDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.tenantUserFromPath(w, r)
		if !ok {
			return
		}
		if u.Role == users.RoleOwner {
			writeError(w, http.StatusForbidden, codeForbidden, "the owner cannot be removed")
			return
		}
		if err := s.repos.Users.Delete(u.Email); err != nil {
			writeError(w, http.StatusNotFound, codeNotFound, "user not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// tenantUserFromPath loads the user named in the path, hiding users of other tenants.
func (s *Server) tenantUserFromPath(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	u, err := s.repos.Users.GetByID(r.PathValue("id"))
	if err != nil || !u.BelongsTo(sessionFrom(r.Context()).tenant.ID) {
		writeError(w, http.StatusNotFound, codeNotFound, "user not found")
		return nil, false
	}
	return u, true
}
