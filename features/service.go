package features

import (
	"context"
	"sync"

	"github.com/jrsteele09/pgportal/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FlagsPath returns the calling user's feature map.
const FlagsPath = "/feature-flags/user"

// Getter is the slice of the API client the Service needs.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

type flagsResponse struct {
	Features Flags `json:"features"`
}

// Service holds the feature flags of the current user and mirrors them into
// the Cache read by the Gate. It is driven by Sync whenever the session user
// changes.
type Service struct {
	client Getter
	cache  *Cache
	logger zerolog.Logger

	mu         sync.RWMutex
	flags      Flags
	loading    bool
	generation uint64
}

type ServiceOption func(*Service)

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService starts in the loading state; nothing is enabled until the first Sync.
func NewService(client Getter, cache *Cache, options ...ServiceOption) *Service {
	s := &Service{
		client:  client,
		cache:   cache,
		logger:  log.Logger,
		flags:   Flags{},
		loading: true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Sync loads the flags for user:
//   - no user: empty flags, cache entry removed
//   - super admin: everything enabled, flags endpoint not called
//   - otherwise: fetched once, with fetch failures treated as everything enabled
//
// A Sync superseded by a later one never overwrites the later result.
func (s *Service) Sync(ctx context.Context, user *users.User) {
	s.mu.Lock()
	s.generation++
	gen := s.generation

	if user == nil {
		s.flags = Flags{}
		s.loading = false
		if err := s.cache.Clear(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to clear feature flag cache")
		}
		s.mu.Unlock()
		return
	}

	if user.IsSuperAdmin() {
		s.applyLocked(Flags{})
		s.mu.Unlock()
		return
	}

	s.loading = true
	s.mu.Unlock()

	var resp flagsResponse
	err := s.client.Get(ctx, FlagsPath, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("user", user.ID).Msg("failed to fetch feature flags, defaulting to all enabled")
		s.applyLocked(Flags{})
		return
	}
	if resp.Features == nil {
		resp.Features = Flags{}
	}
	s.applyLocked(resp.Features)
}

func (s *Service) applyLocked(flags Flags) {
	s.flags = flags
	s.loading = false
	if err := s.cache.Save(flags); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache feature flags")
	}
}

// IsFeatureEnabled is false while flags are loading so nothing flashes up that
// the user may not be entitled to. Once loaded only an explicit false disables.
func (s *Service) IsFeatureEnabled(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loading {
		return false
	}
	return s.flags.Enabled(key)
}

// Flags returns a copy of the loaded flags.
func (s *Service) Flags() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags.clone()
}

func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
