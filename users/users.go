package users

import (
	"fmt"
	"time"

	"unicode"

	"github.com/jrsteele09/pgportal/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a user role either at system or tenant level
type RoleType string

const (
	// System-level roles
	RoleSuperAdmin RoleType = "super_admin" // Manages tenants, plans and templates across the platform

	// Tenant-level roles
	RoleOwner    RoleType = "owner"    // Owns the PG business, manages staff and settings
	RoleManager  RoleType = "manager"  // Runs day to day operations of a property
	RoleStaff    RoleType = "staff"    // Front desk / maintenance staff
	RoleResident RoleType = "resident" // A resident with self-service access
)

// User is the session user as returned by the "who am I" endpoints.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         RoleType  `json:"role"`
	TenantID     *string   `json:"tenantId,omitempty"` // Absent for platform administrators
	PasswordHash string    `json:"-"`                  // Only populated server side - never serialize
	CreatedAt    time.Time `json:"-"`
}

// IsSuperAdmin returns true if the user holds the elevated administrative role
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == RoleSuperAdmin
}

// BelongsTo reports whether the user is a member of the tenant.
func (u *User) BelongsTo(tenantID string) bool {
	if u == nil {
		return false
	}
	return utils.Value(u.TenantID) == tenantID
}

// Public returns a copy of the user that is safe to hand to API callers.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
