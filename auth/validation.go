package auth

import (
	"net/mail"
	"strings"

	"github.com/jrsteele09/pgportal/internal/errors"
	"github.com/jrsteele09/pgportal/tenants"
	"github.com/jrsteele09/pgportal/users"
)

const maxNameLength = 100

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.Validationf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return errors.Validationf("%q is not a valid email address", email)
	}
	return nil
}

func validateCredentials(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return errors.Validationf("password is required")
	}
	return nil
}

// Validate runs the checks the signup form makes before anything is sent.
func (r *SignupRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.Validationf("name is required")
	}
	if len(name) > maxNameLength {
		return errors.Validationf("name must be at most %d characters", maxNameLength)
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := users.ValidatePasswordStrength(r.Password); err != nil {
		return errors.Validationf("%s", err.Error())
	}
	if strings.TrimSpace(r.TenantName) == "" {
		return errors.Validationf("business name is required")
	}
	return tenants.ValidateSlug(r.TenantSlug)
}
