package features

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/pgportal/internal/errors"
	"github.com/jrsteele09/pgportal/notify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BlockedError is returned, without any network I/O, for requests that belong
// to a feature the current user has disabled. It is shaped like a 403 so call
// sites can treat it as a forbidden response, and IsFeatureBlocked lets them
// skip their own error toast since the gate already raised one.
type BlockedError struct {
	Feature Key
	Path    string
	Message string
}

func (e *BlockedError) Error() string {
	return e.Message
}

// StatusCode mirrors the HTTP status the server would have returned.
func (e *BlockedError) StatusCode() int {
	return http.StatusForbidden
}

func (e *BlockedError) IsFeatureBlocked() bool {
	return true
}

func (e *BlockedError) Unwrap() error {
	return errors.ErrFeatureBlocked
}

// IsBlocked reports whether err (or anything it wraps) is a BlockedError.
func IsBlocked(err error) bool {
	var be *BlockedError
	return errors.As(err, &be)
}

// Gate blocks requests for disabled features before they reach the network.
// It is a convenience, not a security boundary: unknown paths and flags that
// are missing from the cache are allowed.
type Gate struct {
	cache    *Cache
	notifier notify.Notifier
	basePath string
	logger   zerolog.Logger
}

type GateOption func(*Gate)

// WithBasePath strips the API base path (e.g. "/api/v1") before route matching.
func WithBasePath(p string) GateOption {
	return func(g *Gate) {
		g.basePath = strings.TrimRight(p, "/")
	}
}

func WithNotifier(n notify.Notifier) GateOption {
	return func(g *Gate) {
		g.notifier = n
	}
}

func WithGateLogger(l zerolog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = l
	}
}

func NewGate(cache *Cache, options ...GateOption) *Gate {
	g := &Gate{
		cache:    cache,
		notifier: notify.Nop{},
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Check returns a *BlockedError when path belongs to a feature that the cached
// flags explicitly disable.
func (g *Gate) Check(ctx context.Context, path string) error {
	if g.basePath != "" {
		path = strings.TrimPrefix(path, g.basePath)
	}

	key, ok := ResolveFeatureKey(path)
	if !ok {
		return nil
	}

	flags, err := g.cache.Load()
	if err != nil {
		g.logger.Debug().Err(err).Str("path", path).Msg("feature cache unreadable, allowing request")
		return nil
	}
	if flags.Enabled(key) {
		return nil
	}

	blocked := &BlockedError{
		Feature: key,
		Path:    NormalizePath(path),
		Message: fmt.Sprintf("%s is not enabled for your account. Contact your administrator to enable it.", key.Label()),
	}
	g.notifier.Notify(ctx, notify.Notification{
		Level:   notify.LevelWarning,
		Title:   "Feature not available",
		Message: blocked.Message,
	})
	return blocked
}

// Middleware installs the gate in front of next.
func (g *Gate) Middleware(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if err := g.Check(req.Context(), req.URL.Path); err != nil {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, err
		}
		return next.RoundTrip(req)
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
