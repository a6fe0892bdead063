// Package browser models the browsing context the session flow depends on:
// the current location (hostname, path, query) and full-page navigation.
package browser

import (
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Login page paths for the two sections of the application
const (
	LoginPath      = "/login"
	AdminLoginPath = "/admin/login"
	adminPrefix    = "/admin"
)

// NavigateFunc is called after every navigation with the new location.
type NavigateFunc func(to *url.URL)

// Browser is safe for concurrent use.
type Browser struct {
	mu        sync.RWMutex
	location  *url.URL
	history   []string
	listeners []NavigateFunc
	logger    zerolog.Logger
}

type Option func(*Browser)

// WithLogger sets the logger used to report navigations
func WithLogger(l zerolog.Logger) Option {
	return func(b *Browser) {
		b.logger = l
	}
}

// OnNavigate registers fn to be called after each navigation.
func OnNavigate(fn NavigateFunc) Option {
	return func(b *Browser) {
		b.listeners = append(b.listeners, fn)
	}
}

// New creates a Browser positioned at rawURL.
func New(rawURL string, options ...Option) (*Browser, error) {
	loc, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if loc.Path == "" {
		loc.Path = "/"
	}
	b := &Browser{
		location: loc,
		history:  []string{loc.String()},
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(b)
	}
	return b, nil
}

// Location returns a copy of the current location.
func (b *Browser) Location() *url.URL {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c := *b.location
	return &c
}

// Path returns the path of the current location.
func (b *Browser) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.location.Path
}

// InAdminSection reports whether the current path is under /admin.
func (b *Browser) InAdminSection() bool {
	return IsAdminPath(b.Path())
}

// LoginPath returns the login page for the section the browser is in.
func (b *Browser) LoginPath() string {
	if b.InAdminSection() {
		return AdminLoginPath
	}
	return LoginPath
}

// Navigate performs a full-page navigation. target may be absolute or relative
// to the current location.
func (b *Browser) Navigate(target string) error {
	ref, err := url.Parse(target)
	if err != nil {
		return err
	}

	b.mu.Lock()
	next := b.location.ResolveReference(ref)
	b.location = next
	b.history = append(b.history, next.String())
	listeners := append([]NavigateFunc(nil), b.listeners...)
	b.mu.Unlock()

	b.logger.Debug().Str("to", next.String()).Msg("navigate")
	to := *next
	for _, fn := range listeners {
		fn(&to)
	}
	return nil
}

// History returns every location visited, oldest first.
func (b *Browser) History() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.history...)
}

// IsAdminPath reports whether p is /admin or below it.
func IsAdminPath(p string) bool {
	return p == adminPrefix || strings.HasPrefix(p, adminPrefix+"/")
}
