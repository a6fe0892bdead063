package devserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/pgportal/internal/config"
	"github.com/jrsteele09/pgportal/tenants"
	"github.com/jrsteele09/pgportal/token"
	"github.com/jrsteele09/pgportal/token/jwt"
	"github.com/jrsteele09/pgportal/token/refresh"
	"github.com/jrsteele09/pgportal/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Repos groups the storage the dev server runs on.
type Repos struct {
	Users         users.UserRepo
	Tenants       tenants.Repo
	RefreshTokens refresh.Repo
}

func (r Repos) validate() error {
	switch {
	case r.Users == nil:
		return errors.New("users repo is required")
	case r.Tenants == nil:
		return errors.New("tenants repo is required")
	case r.RefreshTokens == nil:
		return errors.New("refresh token repo is required")
	}
	return nil
}

// Server is a local stand-in for the PG management API. It serves the session
// endpoints of both sections, the feature flags and in-memory CRUD for every
// resource family.
type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	repos     Repos
	tokens    *jwt.Creator
	inspector *jwt.Inspector
	revoked   *token.RevocationList
	refresh   *refresh.Manager
	records   *recordStore
	seed      Seed
}

func New(c config.Config, repos Repos) (*Server, error) {
	if err := repos.validate(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	issuer := c.GetAPIURL()
	revoked := token.NewRevocationList()
	s := &Server{
		env:       c.GetEnv(),
		mux:       http.NewServeMux(),
		config:    c,
		repos:     repos,
		tokens:    jwt.NewCreator(c.GetJWTSecret(), issuer, c.GetAccessTokenExpiry()),
		inspector: jwt.NewInspector(c.GetJWTSecret(), issuer, revoked),
		revoked:   revoked,
		refresh:   refresh.NewManager(repos.RefreshTokens, c.GetRefreshTokenExpiry()),
		records:   newRecordStore(),
	}

	seed, err := s.InitialiseSystem(context.Background())
	if err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}
	s.seed = seed

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// Seed returns the accounts created at start up.
func (s *Server) Seed() Seed {
	return s.seed
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
