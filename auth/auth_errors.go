package auth

import (
	"fmt"

	"github.com/jrsteele09/pgportal/internal/errors"
)

// RedirectError is returned by Login when the credentials are valid but the
// session must be opened on another tenant's login page. The browser has
// already been sent to URL.
type RedirectError struct {
	TenantSlug string
	URL        string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("login continues on tenant %q at %s", e.TenantSlug, e.URL)
}

func (e *RedirectError) Unwrap() error {
	return errors.ErrTenantRedirect
}
