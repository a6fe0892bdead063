package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/pgportal/apiclient"
	"github.com/jrsteele09/pgportal/auth"
	"github.com/jrsteele09/pgportal/browser"
	"github.com/jrsteele09/pgportal/features"
	"github.com/jrsteele09/pgportal/internal/errors"
	"github.com/jrsteele09/pgportal/internal/utils"
	"github.com/jrsteele09/pgportal/storage/storagefakes"
	"github.com/jrsteele09/pgportal/users"
	"github.com/stretchr/testify/require"
)

// stubAPI answers each path with a canned status and JSON body and records
// every request it sees.
type stubAPI struct {
	mu     sync.Mutex
	routes map[string]stubRoute
	calls  map[string]int
	bodies map[string]map[string]any
	server *httptest.Server
}

type stubRoute struct {
	status int
	body   any
}

func newStubAPI(t *testing.T) *stubAPI {
	t.Helper()
	api := &stubAPI{
		routes: make(map[string]stubRoute),
		calls:  make(map[string]int),
		bodies: make(map[string]map[string]any),
	}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&body)

		api.mu.Lock()
		api.calls[r.URL.Path]++
		api.bodies[r.URL.Path] = body
		route, ok := api.routes[r.URL.Path]
		api.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(route.status)
		if route.body != nil {
			_ = json.NewEncoder(w).Encode(route.body)
		}
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *stubAPI) on(path string, status int, body any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[path] = stubRoute{status: status, body: body}
}

func (a *stubAPI) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[path]
}

func (a *stubAPI) lastBody(path string) map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bodies[path]
}

type fixture struct {
	api      *stubAPI
	browser  *browser.Browser
	client   *apiclient.Client
	store    *storagefakes.MemoryStore
	features *features.Service
	service  *auth.Service
	seen     []*users.User
}

func setupFixture(t *testing.T, location string, options ...auth.ServiceOption) *fixture {
	t.Helper()

	f := &fixture{api: newStubAPI(t), store: storagefakes.NewMemoryStore()}

	var err error
	f.browser, err = browser.New(location)
	require.NoError(t, err)

	cache := features.NewCache(f.store)
	gate := features.NewGate(cache)
	f.client, err = apiclient.New(f.api.server.URL,
		apiclient.WithBrowser(f.browser),
		apiclient.WithMiddleware(gate.Middleware),
	)
	require.NoError(t, err)

	f.features = features.NewService(f.client, cache)
	options = append(options,
		auth.WithUserObserver(f.features.Sync),
		auth.WithUserObserver(func(_ context.Context, u *users.User) { f.seen = append(f.seen, u) }),
	)
	f.service, err = auth.NewService(f.client, options...)
	require.NoError(t, err)
	return f
}

func userBody(id string, role users.RoleType, tenantID *string) map[string]any {
	return map[string]any{"user": &users.User{ID: id, Email: id + "@acme.test", Name: id, Role: role, TenantID: tenantID}}
}

func TestNewServiceRequiresClient(t *testing.T) {
	_, err := auth.NewService(nil)
	require.Error(t, err)
}

func TestInitCallsOnlyTheSectionsMeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		location string
		called   string
		skipped  string
	}{
		{"tenant section", "http://acme.pgportal.test/dashboard", auth.MePath, auth.AdminMePath},
		{"admin section", "http://app.pgportal.test/admin/tenants", auth.AdminMePath, auth.MePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t, tt.location)
			f.api.on(tt.called, http.StatusOK, userBody("u1", users.RoleOwner, utils.Ptr("t1")))
			f.api.on(tt.skipped, http.StatusOK, userBody("u2", users.RoleSuperAdmin, nil))

			require.True(t, f.service.Loading())
			require.NoError(t, f.service.Init(context.Background()))

			require.False(t, f.service.Loading())
			require.Equal(t, "u1", f.service.User().ID)
			require.Equal(t, 1, f.api.count(tt.called))
			require.Equal(t, 0, f.api.count(tt.skipped))
		})
	}
}

func TestInitFailureSignsOut(t *testing.T) {
	f := setupFixture(t, "http://acme.pgportal.test/")
	f.api.on(auth.MePath, http.StatusUnauthorized, map[string]string{"message": "no session"})

	err := f.service.Init(context.Background())
	require.True(t, errors.Is(err, errors.ErrNotAuthenticated))
	require.Nil(t, f.service.User())
	require.False(t, f.service.Loading())
	require.False(t, f.features.Loading())
	require.Equal(t, 0, f.api.count(apiclient.RefreshPath))
	require.Equal(t, "/", f.browser.Path())
}

func TestLoginRedirectOnLocalhost(t *testing.T) {
	f := setupFixture(t, "http://localhost:3000/login")
	f.api.on(auth.LoginPath, http.StatusOK, map[string]any{"redirect": true, "tenantSlug": "acme"})

	user, err := f.service.Login(context.Background(), "owner@acme.test", "Secret123")
	require.Nil(t, user)
	require.True(t, errors.Is(err, errors.ErrTenantRedirect))

	var redirect *auth.RedirectError
	require.True(t, errors.As(err, &redirect))
	require.Equal(t, "acme", redirect.TenantSlug)

	require.Equal(t, "http://localhost:3000/login?tenant=acme", f.browser.Location().String())
	require.Nil(t, f.service.User())
	require.Empty(t, f.seen)
}

func TestLoginRedirectSanitizesSlug(t *testing.T) {
	tests := []struct {
		name     string
		location string
		slug     string
		want     string
	}{
		{"subdomain", "https://globex.pgportal.app/login", "Acme", "https://acme.pgportal.app/login"},
		{"hostile slug on localhost", "http://localhost:3000/login", "evil.com/<script>", "http://localhost:3000/login?tenant=evil-com-script"},
		{"hostile slug on subdomain", "https://globex.pgportal.app/login", "x.attacker.io\r\nSet-Cookie", "https://x-attacker-io-set-cookie.pgportal.app/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t, tt.location)
			f.api.on(auth.LoginPath, http.StatusOK, map[string]any{"redirect": true, "tenantSlug": tt.slug})

			_, err := f.service.Login(context.Background(), "owner@acme.test", "Secret123")
			require.True(t, errors.Is(err, errors.ErrTenantRedirect))
			require.Equal(t, tt.want, f.browser.Location().String())
		})
	}
}

func TestLoginRedirectRefusesEmptySlug(t *testing.T) {
	f := setupFixture(t, "http://localhost:3000/login")
	f.api.on(auth.LoginPath, http.StatusOK, map[string]any{"redirect": true, "tenantSlug": "<>"})

	_, err := f.service.Login(context.Background(), "owner@acme.test", "Secret123")
	require.True(t, errors.Is(err, errors.ErrInvalidTenantSlug))
	require.Equal(t, "/login", f.browser.Path())
}

func TestLoginUsesRootDomainOption(t *testing.T) {
	f := setupFixture(t, "https://globex.pgportal.app/login", auth.WithRootDomain("pgportal.io"))
	f.api.on(auth.LoginPath, http.StatusOK, map[string]any{"redirect": true, "tenantSlug": "acme"})

	_, err := f.service.Login(context.Background(), "owner@acme.test", "Secret123")
	require.Error(t, err)
	require.Equal(t, "https://acme.pgportal.io/login", f.browser.Location().String())
}

func TestLoginTenantUser(t *testing.T) {
	f := setupFixture(t, "http://localhost:3000/login?tenant=acme")
	f.api.on(auth.LoginPath, http.StatusOK, userBody("u1", users.RoleManager, utils.Ptr("t1")))
	f.api.on(features.FlagsPath, http.StatusOK, map[string]any{"features": map[string]bool{"complaints": false}})

	user, err := f.service.Login(context.Background(), "manager@acme.test", "Secret123")
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, "acme", f.api.lastBody(auth.LoginPath)["tenantSlug"])

	require.Equal(t, 1, f.api.count(features.FlagsPath))
	require.False(t, f.features.IsFeatureEnabled(features.Complaints))
	require.True(t, f.features.IsFeatureEnabled(features.Rooms))

	// the cached flags now block complaints before the network
	require.True(t, features.IsBlocked(f.client.Get(context.Background(), "/complaints", nil)))
	require.Equal(t, 0, f.api.count("/complaints"))
}

func TestLoginSuperAdminSkipsFeatureFetch(t *testing.T) {
	f := setupFixture(t, "http://app.pgportal.test/admin/login")
	f.api.on(auth.AdminLoginPath, http.StatusOK, userBody("root", users.RoleSuperAdmin, nil))

	_, err := f.service.Login(context.Background(), "root@pgportal.test", "Secret123")
	require.NoError(t, err)

	require.Equal(t, 1, f.api.count(auth.AdminLoginPath))
	require.Equal(t, 0, f.api.count(auth.LoginPath))
	require.Nil(t, f.api.lastBody(auth.AdminLoginPath)["tenantSlug"])

	require.Equal(t, 0, f.api.count(features.FlagsPath))
	require.Empty(t, f.features.Flags())
	for _, key := range features.GatedKeys() {
		require.True(t, f.features.IsFeatureEnabled(key))
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := setupFixture(t, "http://acme.pgportal.test/login")
	f.api.on(auth.LoginPath, http.StatusUnauthorized, map[string]string{"code": "INVALID_CREDENTIALS", "message": "Invalid credentials"})

	_, err := f.service.Login(context.Background(), "owner@acme.test", "wrong")
	require.True(t, errors.Is(err, errors.ErrNotAuthenticated))
	require.Equal(t, "Incorrect email or password.", apiclient.FriendlyMessage(err))
	require.Equal(t, 0, f.api.count(apiclient.RefreshPath))
	require.Equal(t, "/login", f.browser.Path())
	require.Len(t, f.browser.History(), 1)
}

func TestLoginValidation(t *testing.T) {
	f := setupFixture(t, "http://acme.pgportal.test/login")

	_, err := f.service.Login(context.Background(), "", "Secret123")
	require.True(t, errors.Is(err, errors.ErrValidation))
	_, err = f.service.Login(context.Background(), "not-an-email", "Secret123")
	require.True(t, errors.Is(err, errors.ErrValidation))
	_, err = f.service.Login(context.Background(), "owner@acme.test", "")
	require.True(t, errors.Is(err, errors.ErrValidation))
	require.Equal(t, 0, f.api.count(auth.LoginPath))
}

func TestLogoutClearsUserAndFlags(t *testing.T) {
	f := setupFixture(t, "http://acme.pgportal.test/")
	f.api.on(auth.MePath, http.StatusOK, userBody("u1", users.RoleOwner, utils.Ptr("t1")))
	f.api.on(features.FlagsPath, http.StatusOK, map[string]any{"features": map[string]bool{"complaints": false}})
	f.api.on(auth.LogoutPath, http.StatusOK, nil)

	require.NoError(t, f.service.Init(context.Background()))
	require.True(t, f.store.Has(features.StorageKey))

	require.NoError(t, f.service.Logout(context.Background()))
	require.Nil(t, f.service.User())
	require.False(t, f.store.Has(features.StorageKey))
	require.True(t, f.features.IsFeatureEnabled(features.Complaints))
	require.Equal(t, 0, f.api.count(auth.AdminLogoutPath))
}

func TestLogoutFallsBackToAdmin(t *testing.T) {
	f := setupFixture(t, "http://app.pgportal.test/admin")
	f.api.on(auth.LogoutPath, http.StatusInternalServerError, nil)
	f.api.on(auth.AdminLogoutPath, http.StatusOK, nil)

	require.NoError(t, f.service.Logout(context.Background()))
	require.Equal(t, 1, f.api.count(auth.LogoutPath))
	require.Equal(t, 1, f.api.count(auth.AdminLogoutPath))

	f.api.on(auth.AdminLogoutPath, http.StatusInternalServerError, nil)
	require.Error(t, f.service.Logout(context.Background()))
	require.Nil(t, f.service.User())
}

func TestRefreshUserFailureIsLogout(t *testing.T) {
	f := setupFixture(t, "http://acme.pgportal.test/")
	f.api.on(auth.MePath, http.StatusOK, userBody("u1", users.RoleOwner, utils.Ptr("t1")))
	f.api.on(features.FlagsPath, http.StatusOK, map[string]any{"features": map[string]bool{}})
	require.NoError(t, f.service.Init(context.Background()))

	f.api.on(auth.MePath, http.StatusUnauthorized, nil)
	require.Error(t, f.service.RefreshUser(context.Background()))
	require.Nil(t, f.service.User())
	require.False(t, f.store.Has(features.StorageKey))
}

func TestSessionExpiryClearsUser(t *testing.T) {
	f := setupFixture(t, "http://acme.pgportal.test/rooms")
	f.api.on(auth.MePath, http.StatusOK, userBody("u1", users.RoleOwner, utils.Ptr("t1")))
	f.api.on(features.FlagsPath, http.StatusOK, map[string]any{"features": map[string]bool{}})
	f.api.on("/rooms", http.StatusUnauthorized, nil)
	f.api.on(apiclient.RefreshPath, http.StatusUnauthorized, nil)
	require.NoError(t, f.service.Init(context.Background()))

	err := f.client.Get(context.Background(), "/rooms", nil)
	require.True(t, errors.Is(err, errors.ErrSessionExpired))
	require.Nil(t, f.service.User())
	require.Equal(t, "/login", f.browser.Path())
}

func TestSignup(t *testing.T) {
	valid := auth.SignupRequest{
		Name:       "Asha Rao",
		Email:      "asha@sunrise.test",
		Password:   "Secret123",
		TenantName: "Sunrise PG",
		TenantSlug: "sunrise",
	}

	t.Run("navigates to the new workspace", func(t *testing.T) {
		f := setupFixture(t, "http://localhost:3000/signup")
		body := userBody("u9", users.RoleOwner, utils.Ptr("t9"))
		body["tenantSlug"] = "sunrise"
		f.api.on(auth.SignupPath, http.StatusCreated, body)
		f.api.on(features.FlagsPath, http.StatusOK, map[string]any{"features": map[string]bool{}})

		user, err := f.service.Signup(context.Background(), valid)
		require.NoError(t, err)
		require.Equal(t, "u9", user.ID)
		require.Equal(t, "u9", f.service.User().ID)
		require.Equal(t, "sunrise", f.api.lastBody(auth.SignupPath)["tenantSlug"])
		require.Equal(t, "http://localhost:3000/login?tenant=sunrise", f.browser.Location().String())
	})

	t.Run("stays when already on the workspace", func(t *testing.T) {
		f := setupFixture(t, "https://sunrise.pgportal.app/signup")
		body := userBody("u9", users.RoleOwner, utils.Ptr("t9"))
		body["tenantSlug"] = "sunrise"
		f.api.on(auth.SignupPath, http.StatusCreated, body)
		f.api.on(features.FlagsPath, http.StatusOK, map[string]any{"features": map[string]bool{}})

		_, err := f.service.Signup(context.Background(), valid)
		require.NoError(t, err)
		require.Equal(t, "/signup", f.browser.Path())
	})

	t.Run("server conflict", func(t *testing.T) {
		f := setupFixture(t, "http://localhost:3000/signup")
		f.api.on(auth.SignupPath, http.StatusConflict, map[string]string{"code": "EMAIL_TAKEN", "message": "email already taken"})

		_, err := f.service.Signup(context.Background(), valid)
		require.True(t, errors.Is(err, errors.ErrConflict))
		require.Equal(t, "An account with this email already exists.", apiclient.FriendlyMessage(err))
		require.Nil(t, f.service.User())
	})

	t.Run("pre-submit validation blocks the request", func(t *testing.T) {
		f := setupFixture(t, "http://localhost:3000/signup")
		weak := valid
		weak.Password = "password"
		_, err := f.service.Signup(context.Background(), weak)
		require.True(t, errors.Is(err, errors.ErrValidation))
		require.Equal(t, 0, f.api.count(auth.SignupPath))
	})
}
