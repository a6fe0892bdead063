package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/pgportal/devserver"
	"github.com/jrsteele09/pgportal/features"
	"github.com/jrsteele09/pgportal/internal/config"
	"github.com/jrsteele09/pgportal/internal/errors"
	tenantrepofakes "github.com/jrsteele09/pgportal/tenants/repofakes"
	refreshrepofake "github.com/jrsteele09/pgportal/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/pgportal/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	adminPassword = "AdminPass1"
	demoPassword  = config.DefaultDemoPassword
)

// startAPI runs a seeded dev server and points pgctl's local store at a
// fresh folder.
func startAPI(t *testing.T) string {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("SYSTEM_ADMIN_PASSWORD", adminPassword)
	t.Setenv("DEMO_PASSWORD", demoPassword)
	t.Setenv("PG_APP_URL", "http://localhost:3000/")
	t.Setenv(passwordEnvVar, "")
	useDataFolder(t)

	srv, err := devserver.New(config.New(), devserver.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Tenants:       tenantrepofakes.NewFakeTenantRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts.URL
}

// useDataFolder switches to a new local store, as if pgctl ran on another machine.
func useDataFolder(t *testing.T) {
	t.Helper()
	t.Setenv("PG_DATA_FOLDER", t.TempDir())
}

// pgctl runs one command against apiURL and returns its stdout.
func pgctl(t *testing.T, apiURL string, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--api", apiURL}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustPgctl(t *testing.T, apiURL string, args ...string) string {
	t.Helper()
	out, err := pgctl(t, apiURL, "", args...)
	require.NoError(t, err, "pgctl %s", strings.Join(args, " "))
	return out
}

func TestLoginFollowsTenantRedirect(t *testing.T) {
	api := startAPI(t)

	out := mustPgctl(t, api, "login", "-e", "owner@acme.test", "-p", demoPassword, "--location", "http://localhost:3000/login")
	require.Contains(t, out, "continuing on http://localhost:3000/login?tenant=acme")
	require.Contains(t, out, "Signed in as owner@acme.test (owner)")

	// The redirected location and the session survive between runs
	out = mustPgctl(t, api, "whoami")
	require.Contains(t, out, `"email": "owner@acme.test"`)

	out = mustPgctl(t, api, "get", "/residents")
	require.Contains(t, out, "Ravi Kumar")

	out = mustPgctl(t, api, "logout")
	require.Contains(t, out, "Signed out")

	_, err := pgctl(t, api, "", "whoami")
	require.True(t, errors.Is(err, errors.ErrNotAuthenticated))
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	api := startAPI(t)

	out, err := pgctl(t, api, demoPassword+"\n", "login", "-e", "manager@acme.test", "--location", "http://localhost:3000/login?tenant=acme")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as manager@acme.test (manager)")
	require.NotContains(t, out, "continuing on")
}

func TestLoginWithBadPassword(t *testing.T) {
	api := startAPI(t)

	_, err := pgctl(t, api, "", "login", "-e", "owner@acme.test", "-p", "WrongPass1", "--location", "http://localhost:3000/login?tenant=acme")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "401")
}

func TestDisabledFeaturesAreBlocked(t *testing.T) {
	api := startAPI(t)
	mustPgctl(t, api, "login", "-e", "owner@sunrise.test", "-p", demoPassword, "--location", "http://localhost:3000/login?tenant=sunrise")

	out := mustPgctl(t, api, "features")
	require.Regexp(t, `complaints\s+Complaints\s+disabled`, out)
	require.Regexp(t, `assets\s+Assets\s+disabled`, out)
	require.Regexp(t, `rooms\s+Rooms & Beds\s+enabled`, out)
	require.NotContains(t, out, string(features.Residents)+" ")

	_, err := pgctl(t, api, "", "get", "/complaints")
	require.EqualError(t, err, "Complaints is not enabled for your account. Contact your administrator to enable it.")

	out = mustPgctl(t, api, "get", "/residents")
	require.Contains(t, out, "Ravi Kumar")
}

func TestAdminManagesTenantFeatures(t *testing.T) {
	api := startAPI(t)

	_, err := pgctl(t, api, "", "tenants")
	require.True(t, errors.Is(err, errors.ErrForbidden))

	out := mustPgctl(t, api, "login", "--admin", "-e", config.DefaultAdminEmail, "-p", adminPassword)
	require.Contains(t, out, "Signed in as "+config.DefaultAdminEmail+" (super_admin)")

	out = mustPgctl(t, api, "features")
	require.Contains(t, out, "all features enabled")

	out = mustPgctl(t, api, "tenants")
	require.Contains(t, out, "acme")
	require.Contains(t, out, "Sunrise PG")

	var list []struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustPgctl(t, api, "get", "/admin/tenants")), &list))
	var sunriseID string
	for _, tenant := range list {
		if tenant.Slug == "sunrise" {
			sunriseID = tenant.ID
		}
	}
	require.NotEmpty(t, sunriseID)

	out = mustPgctl(t, api, "tenants", "features", sunriseID, "complaints=on")
	require.Equal(t, "sunrise: complaints on\n", out)

	_, err = pgctl(t, api, "", "tenants", "features", sunriseID, "residents=off")
	require.True(t, errors.Is(err, errors.ErrValidation))

	useDataFolder(t)
	mustPgctl(t, api, "login", "-e", "owner@sunrise.test", "-p", demoPassword, "--location", "http://localhost:3000/login?tenant=sunrise")
	out = mustPgctl(t, api, "features")
	require.Regexp(t, `complaints\s+Complaints\s+enabled`, out)
	mustPgctl(t, api, "get", "/complaints")
}

func TestParseToggles(t *testing.T) {
	got, err := parseToggles([]string{"complaints=on", "assets=OFF", "visitors=true"})
	require.NoError(t, err)
	require.Equal(t, []toggle{
		{features.Complaints, true},
		{features.Assets, false},
		{features.Visitors, true},
	}, got)

	tests := []struct {
		name string
		args []string
	}{
		{"no value", []string{"complaints"}},
		{"unknown feature", []string{"laundry=on"}},
		{"residents are not gateable", []string{"residents=off"}},
		{"bad value", []string{"assets=maybe"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseToggles(tc.args)
			require.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}
