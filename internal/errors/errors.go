package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the client packages and the dev server
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrTenantRedirect     = errors.New("login must continue on another tenant")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Tenant errors
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrInvalidTenantSlug = errors.New("invalid tenant slug")
	ErrInvalidRootDomain = errors.New("invalid root domain")
	ErrTenantSuspended   = errors.New("tenant suspended")

	// Feature errors
	ErrFeatureBlocked = errors.New("feature not enabled")

	// General errors
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrForbidden  = errors.New("forbidden")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Validationf returns an ErrValidation carrying a field level message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
