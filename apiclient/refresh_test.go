package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/pgportal/apiclient"
	"github.com/jrsteele09/pgportal/internal/errors"
	"github.com/stretchr/testify/require"
)

// sessionAPI is a stub API whose resources need the access_token cookie that
// the refresh endpoints hand out.
type sessionAPI struct {
	refreshOK     bool
	alwaysDeny    bool
	refreshCalls  map[string]*atomic.Int32
	resourceCalls atomic.Int32
	meCalls       atomic.Int32
	server        *httptest.Server

	// While holding, the refresh endpoints report on started and then wait
	// for hold to be closed before answering.
	holding atomic.Bool
	started chan struct{}
	hold    chan struct{}
}

func newSessionAPI(t *testing.T, refreshOK bool) *sessionAPI {
	t.Helper()
	api := &sessionAPI{
		refreshOK: refreshOK,
		started:   make(chan struct{}, 1),
		hold:      make(chan struct{}),
		refreshCalls: map[string]*atomic.Int32{
			apiclient.RefreshPath:      {},
			apiclient.AdminRefreshPath: {},
		},
	}

	mux := http.NewServeMux()
	for path, counter := range api.refreshCalls {
		mux.HandleFunc("POST "+path, func(w http.ResponseWriter, r *http.Request) {
			counter.Add(1)
			if api.holding.Load() {
				select {
				case api.started <- struct{}{}:
				default:
				}
				<-api.hold
			}
			if !api.refreshOK {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"code":"SESSION_EXPIRED","message":"refresh token expired"}`))
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "fresh", Path: "/"})
		})
	}
	mux.HandleFunc("POST /auth/me", func(w http.ResponseWriter, r *http.Request) {
		api.meCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/residents", func(w http.ResponseWriter, r *http.Request) {
		api.resourceCalls.Add(1)
		if _, err := r.Cookie("access_token"); err != nil || api.alwaysDeny {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"res-1"}]`))
	})

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (a *sessionAPI) refreshes(path string) int32 {
	return a.refreshCalls[path].Load()
}

// holdRefresh makes the refresh endpoints wait until the returned func is called.
func (a *sessionAPI) holdRefresh() (release func()) {
	a.holding.Store(true)
	var once sync.Once
	return func() { once.Do(func() { close(a.hold) }) }
}

func TestRefreshRetriesOriginalRequestOnce(t *testing.T) {
	api := newSessionAPI(t, true)
	b := newBrowser(t, "http://acme.pgportal.test/residents")
	c := newClient(t, api.server, apiclient.WithBrowser(b))

	var residents []map[string]string
	require.NoError(t, c.Get(context.Background(), "/residents", &residents))
	require.Len(t, residents, 1)

	require.Equal(t, int32(1), api.refreshes(apiclient.RefreshPath))
	require.Equal(t, int32(0), api.refreshes(apiclient.AdminRefreshPath))
	require.Equal(t, int32(2), api.resourceCalls.Load())
	require.Len(t, b.History(), 1, "no navigation after a successful refresh")
}

func TestRefreshSecond401DoesNotLoop(t *testing.T) {
	api := newSessionAPI(t, true)
	api.alwaysDeny = true
	b := newBrowser(t, "http://acme.pgportal.test/residents")
	c := newClient(t, api.server, apiclient.WithBrowser(b))

	err := c.Get(context.Background(), "/residents", nil)
	var apiErr *apiclient.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)

	require.Equal(t, int32(1), api.refreshes(apiclient.RefreshPath))
	require.Equal(t, int32(2), api.resourceCalls.Load())
}

func TestRefreshFailureRedirectsToLogin(t *testing.T) {
	tests := []struct {
		name        string
		location    string
		refreshPath string
		loginPath   string
	}{
		{"tenant section", "http://acme.pgportal.test/rooms", apiclient.RefreshPath, "/login"},
		{"admin section", "http://app.pgportal.test/admin/tenants", apiclient.AdminRefreshPath, "/admin/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newSessionAPI(t, false)
			b := newBrowser(t, tt.location)
			c := newClient(t, api.server, apiclient.WithBrowser(b))

			var expired atomic.Int32
			c.OnSessionExpired(func(context.Context) { expired.Add(1) })

			err := c.Get(context.Background(), "/residents", nil)
			require.True(t, errors.Is(err, errors.ErrSessionExpired))
			require.True(t, errors.Is(err, errors.ErrNotAuthenticated))
			require.Equal(t, "Your session has expired. Please sign in again.", apiclient.FriendlyMessage(err))

			require.Equal(t, int32(1), api.refreshes(tt.refreshPath))
			require.Equal(t, int32(1), api.resourceCalls.Load())
			require.Equal(t, tt.loginPath, b.Path())
			require.Equal(t, int32(1), expired.Load())
		})
	}
}

func TestRefresh401OnRefreshURLNavigatesWithoutRefreshing(t *testing.T) {
	tests := []struct {
		location  string
		path      string
		loginPath string
	}{
		{"http://acme.pgportal.test/dashboard", apiclient.RefreshPath, "/login"},
		{"http://app.pgportal.test/admin", apiclient.AdminRefreshPath, "/admin/login"},
		{"http://app.pgportal.test/admin/plans", apiclient.RefreshPath, "/admin/login"},
	}

	for _, tt := range tests {
		t.Run(tt.location+tt.path, func(t *testing.T) {
			api := newSessionAPI(t, false)
			b := newBrowser(t, tt.location)
			c := newClient(t, api.server, apiclient.WithBrowser(b))

			_, err := c.Do(context.Background(), &apiclient.Request{Method: http.MethodPost, Path: tt.path})
			require.Error(t, err)
			require.False(t, errors.Is(err, errors.ErrSessionExpired))
			require.Equal(t, int32(1), api.refreshes(tt.path), "only the original call")
			require.Equal(t, tt.loginPath, b.Path())
		})
	}
}

func TestRefreshMe401Propagates(t *testing.T) {
	api := newSessionAPI(t, true)
	b := newBrowser(t, "http://acme.pgportal.test/")
	c := newClient(t, api.server, apiclient.WithBrowser(b))

	err := c.Post(context.Background(), apiclient.MePath, nil, nil)
	require.True(t, errors.Is(err, errors.ErrNotAuthenticated))
	require.Equal(t, int32(1), api.meCalls.Load())
	require.Equal(t, int32(0), api.refreshes(apiclient.RefreshPath))
	require.Equal(t, "/", b.Path())
}

func TestRefreshSkipped(t *testing.T) {
	api := newSessionAPI(t, true)
	c := newClient(t, api.server)

	resp, err := c.Do(context.Background(), &apiclient.Request{Path: "/residents", SkipRefresh: true})
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(0), api.refreshes(apiclient.RefreshPath))
}

func TestRefreshConcurrentRequestsShareOneRefresh(t *testing.T) {
	const callers = 8
	api := newSessionAPI(t, true)
	release := api.holdRefresh()
	t.Cleanup(release)
	b := newBrowser(t, "http://acme.pgportal.test/residents")
	c := newClient(t, api.server, apiclient.WithBrowser(b))

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Get(context.Background(), "/residents", nil)
		}()
	}

	// Every caller has had its 401 before the refresh is allowed to finish
	require.Eventually(t, func() bool {
		return api.resourceCalls.Load() == callers
	}, 2*time.Second, 5*time.Millisecond)
	<-api.started
	time.Sleep(50 * time.Millisecond)
	release()

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), api.refreshes(apiclient.RefreshPath))
	require.Equal(t, int32(2*callers), api.resourceCalls.Load())
	require.Len(t, b.History(), 1)
}

func TestRefreshSurvivesCancelledCaller(t *testing.T) {
	api := newSessionAPI(t, true)
	release := api.holdRefresh()
	t.Cleanup(release)
	b := newBrowser(t, "http://acme.pgportal.test/residents")
	c := newClient(t, api.server, apiclient.WithBrowser(b))

	var expired atomic.Int32
	c.OnSessionExpired(func(context.Context) { expired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := make(chan error, 1)
	go func() { first <- c.Get(ctx, "/residents", nil) }()
	<-api.started

	second := make(chan error, 1)
	go func() { second <- c.Get(context.Background(), "/residents", nil) }()
	require.Eventually(t, func() bool {
		return api.resourceCalls.Load() == 2
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	release()
	require.NoError(t, <-second)

	require.Equal(t, int32(1), api.refreshes(apiclient.RefreshPath))
	require.Equal(t, int32(0), expired.Load())
	require.Equal(t, "/residents", b.Path())
	require.Len(t, b.History(), 1)
}

func TestEndpointMatching(t *testing.T) {
	require.True(t, apiclient.IsRefreshRequest("/auth/refresh"))
	require.True(t, apiclient.IsRefreshRequest("/admin/auth/refresh?x=1"))
	require.True(t, apiclient.IsRefreshRequest("/api/v1/auth/refresh/"))
	require.False(t, apiclient.IsRefreshRequest("/auth/refresh-settings"))
	require.True(t, apiclient.IsMeRequest("/admin/auth/me"))
	require.False(t, apiclient.IsMeRequest("/auth/members"))
}
