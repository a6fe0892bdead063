package users_test

import (
	"testing"

	"github.com/jrsteele09/pgportal/internal/utils"
	"github.com/jrsteele09/pgportal/users"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		errMsg   string
	}{
		{"valid", "Hostel2024", ""},
		{"too short", "Ab1", "at least 8 characters"},
		{"no upper", "hostel2024", "uppercase"},
		{"no lower", "HOSTEL2024", "lowercase"},
		{"no number", "HostelLife", "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("Hostel2024")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("Hostel2024", hash))
	require.False(t, users.CheckPasswordHash("hostel2024", hash))
}

func TestUserRoles(t *testing.T) {
	admin := &users.User{ID: "a", Role: users.RoleSuperAdmin}
	owner := &users.User{ID: "o", Role: users.RoleOwner, TenantID: utils.Ptr("tenant-1")}

	require.True(t, admin.IsSuperAdmin())
	require.False(t, owner.IsSuperAdmin())
	require.False(t, (*users.User)(nil).IsSuperAdmin())

	require.True(t, owner.BelongsTo("tenant-1"))
	require.False(t, owner.BelongsTo("tenant-2"))
	require.False(t, admin.BelongsTo("tenant-1"))
}

func TestUserPublicDropsHash(t *testing.T) {
	u := &users.User{ID: "1", PasswordHash: "secret"}
	p := u.Public()
	require.Empty(t, p.PasswordHash)
	require.Equal(t, "secret", u.PasswordHash)
}
