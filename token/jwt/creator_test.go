package jwt_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/pgportal/internal/errors"
	"github.com/jrsteele09/pgportal/internal/utils"
	"github.com/jrsteele09/pgportal/token"
	"github.com/jrsteele09/pgportal/token/jwt"
	"github.com/jrsteele09/pgportal/users"
	"github.com/stretchr/testify/require"
)

const (
	secret = "test-secret"
	issuer = "pgportal-dev"
)

func TestCreateAndIntrospect(t *testing.T) {
	creator := jwt.NewCreator(secret, issuer, 15*time.Minute)
	inspector := jwt.NewInspector(secret, issuer, nil)

	user := &users.User{ID: "u1", Role: users.RoleOwner, TenantID: utils.Ptr("t1")}
	raw, created, err := creator.CreateAccessToken(user, jwt.ScopeTenant)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	claims, err := inspector.Introspect(raw, jwt.ScopeTenant)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, "t1", claims.TenantID)
	require.Equal(t, users.RoleOwner, claims.Role)
}

func TestIntrospectRejects(t *testing.T) {
	creator := jwt.NewCreator(secret, issuer, 15*time.Minute)
	revoked := token.NewRevocationList()
	inspector := jwt.NewInspector(secret, issuer, revoked)

	admin := &users.User{ID: "root", Role: users.RoleSuperAdmin}
	raw, claims, err := creator.CreateAccessToken(admin, jwt.ScopeAdmin)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := inspector.Introspect("  ", jwt.ScopeAdmin)
		require.True(t, errors.Is(err, errors.ErrInvalidToken))
	})

	t.Run("wrong scope", func(t *testing.T) {
		_, err := inspector.Introspect(raw, jwt.ScopeTenant)
		require.True(t, errors.Is(err, errors.ErrInvalidToken))
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := jwt.NewInspector("other", issuer, nil).Introspect(raw, jwt.ScopeAdmin)
		require.True(t, errors.Is(err, errors.ErrInvalidToken))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := jwt.NewInspector(secret, "someone-else", nil).Introspect(raw, jwt.ScopeAdmin)
		require.True(t, errors.Is(err, errors.ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		jwt.NowTimeFunc = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { jwt.NowTimeFunc = time.Now }()
		_, err := inspector.Introspect(raw, jwt.ScopeAdmin)
		require.True(t, errors.Is(err, errors.ErrInvalidToken))
	})

	t.Run("revoked", func(t *testing.T) {
		_, err := inspector.Introspect(raw, jwt.ScopeAdmin)
		require.NoError(t, err)

		revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
		require.Equal(t, 1, revoked.Len())
		_, err = inspector.Introspect(raw, jwt.ScopeAdmin)
		require.True(t, errors.Is(err, errors.ErrInvalidToken))
	})
}
