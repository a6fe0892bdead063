package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/jrsteele09/pgportal/apiclient"
	"github.com/jrsteele09/pgportal/browser"
	"github.com/jrsteele09/pgportal/tenants"
	"github.com/jrsteele09/pgportal/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// API is the part of the shared API client the session flow needs.
type API interface {
	Do(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error)
	Browser() *browser.Browser
	OnSessionExpired(fn func(ctx context.Context))
}

// UserObserver is told about every change of the session user, including the
// change to no user on logout.
type UserObserver func(ctx context.Context, user *users.User)

// Service holds the session user of the current browsing context.
type Service struct {
	api        API
	rootDomain string
	logger     zerolog.Logger
	observers  []UserObserver

	mu      sync.RWMutex
	user    *users.User
	loading bool
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithRootDomain sets the domain tenant subdomains hang off. Without it the
// root domain is derived from the current hostname.
func WithRootDomain(domain string) ServiceOption {
	return func(s *Service) {
		s.rootDomain = domain
	}
}

func WithUserObserver(fn UserObserver) ServiceOption {
	return func(s *Service) {
		s.observers = append(s.observers, fn)
	}
}

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a Service in the loading state. A failed session refresh
// anywhere in the client clears the user.
func NewService(api API, options ...ServiceOption) (*Service, error) {
	if api == nil {
		return nil, errors.New("[NewService] api client is required")
	}
	s := &Service{
		api:     api,
		logger:  log.Logger,
		loading: true,
	}
	for _, opt := range options {
		opt(s)
	}
	api.OnSessionExpired(func(ctx context.Context) {
		s.setUser(ctx, nil)
	})
	return s, nil
}

// User returns the session user, nil when signed out.
func (s *Service) User() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Service) IsAuthenticated() bool {
	return s.User() != nil
}

// Init resolves the existing session. Only the "who am I" endpoint of the
// current section is called, never both, so admin and tenant tokens are not
// mixed up. A failure leaves the service signed out and is returned.
func (s *Service) Init(ctx context.Context) error {
	user, err := s.me(ctx)
	s.setUser(ctx, user)
	if err != nil {
		return errors.Wrap(err, "[Init] no active session")
	}
	return nil
}

// RefreshUser re-reads the session user. A failure is an implicit logout.
func (s *Service) RefreshUser(ctx context.Context) error {
	user, err := s.me(ctx)
	s.setUser(ctx, user)
	if err != nil {
		return errors.Wrap(err, "[RefreshUser] session lost")
	}
	return nil
}

func (s *Service) me(ctx context.Context) (*users.User, error) {
	path := MePath
	if s.api.Browser().InAdminSection() {
		path = AdminMePath
	}

	var out sessionResponse
	if err := s.post(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.Errorf("%s answered without a user", path)
	}
	return out.User, nil
}

// Login signs in with the tenant resolved from the current location, or with
// the admin endpoint in the admin section. When the server answers that the
// account belongs to another tenant the browser is sent to that tenant's login
// page, the user stays unset and a *RedirectError is returned.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	b := s.api.Browser()
	req := LoginRequest{Email: email, Password: password}
	path := LoginPath
	if b.InAdminSection() {
		path = AdminLoginPath
	} else if slug, ok := tenants.Resolve(b.Location()); ok {
		req.TenantSlug = slug
	}

	var out sessionResponse
	if err := s.post(ctx, path, req, &out); err != nil {
		return nil, errors.Wrap(err, "[Login] login failed")
	}

	if out.Redirect {
		return nil, s.redirectToTenant(out.TenantSlug)
	}
	if out.User == nil {
		return nil, errors.New("[Login] response carried no user")
	}

	s.logger.Info().Str("user", out.User.ID).Str("tenant", req.TenantSlug).Msg("signed in")
	s.setUser(ctx, out.User)
	return out.User, nil
}

// Signup validates req locally, registers the business and signs its owner
// in. If the server settled on a different workspace slug than the one the
// browser is on, the browser moves to that workspace's login page.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*users.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out sessionResponse
	if err := s.post(ctx, SignupPath, req, &out); err != nil {
		return nil, errors.Wrap(err, "[Signup] signup failed")
	}
	if out.User == nil {
		return nil, errors.New("[Signup] response carried no user")
	}
	s.setUser(ctx, out.User)

	if out.TenantSlug != "" {
		current, _ := tenants.Resolve(s.api.Browser().Location())
		if tenants.SanitizeSlug(out.TenantSlug) != current {
			if err := s.navigateToTenant(out.TenantSlug); err != nil {
				return out.User, err
			}
		}
	}
	return out.User, nil
}

// Logout ends the session with the tenant endpoint, falling back to the admin
// one. The user is cleared whatever the outcome; the server owns the cookies.
func (s *Service) Logout(ctx context.Context) error {
	defer s.setUser(ctx, nil)

	tenantErr := s.post(ctx, LogoutPath, nil, nil)
	if tenantErr == nil {
		return nil
	}
	s.logger.Debug().Err(tenantErr).Msg("tenant logout failed, trying admin logout")

	if adminErr := s.post(ctx, AdminLogoutPath, nil, nil); adminErr != nil {
		return fmt.Errorf("[Logout] tenant: %v, admin: %w", tenantErr, adminErr)
	}
	return nil
}

// post calls a session endpoint. A 401 from these endpoints means bad
// credentials or no session, so it never triggers a session refresh.
func (s *Service) post(ctx context.Context, path string, in, out any) error {
	resp, err := s.api.Do(ctx, &apiclient.Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        in,
		SkipRefresh: true,
	})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (s *Service) redirectToTenant(slug string) error {
	if err := s.navigateToTenant(slug); err != nil {
		return err
	}
	return &RedirectError{
		TenantSlug: tenants.SanitizeSlug(slug),
		URL:        s.api.Browser().Location().String(),
	}
}

func (s *Service) navigateToTenant(slug string) error {
	b := s.api.Browser()
	target, err := tenants.LoginURL(b.Location(), slug, s.rootDomain)
	if err != nil {
		return errors.Wrap(err, "refusing tenant redirect")
	}
	s.logger.Info().Str("tenant", slug).Str("target", target).Msg("continuing on tenant login page")
	return b.Navigate(target)
}

func (s *Service) setUser(ctx context.Context, user *users.User) {
	s.mu.Lock()
	s.user = user
	s.loading = false
	observers := append([]UserObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, user)
	}
}
