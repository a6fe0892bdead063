package tenants

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jrsteele09/pgportal/internal/errors"
)

// MaxSlugLength matches the DNS label limit.
const MaxSlugLength = 63

var (
	strictSlugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,61}[a-z0-9])$`)
	rootDomainPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)*(?::[0-9]{1,5})?$`)
)

// SanitizeSlug reduces s to lowercase alphanumerics and single hyphens, capped
// at MaxSlugLength. The result is safe to interpolate into a hostname or query.
func SanitizeSlug(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

// ValidateSlug is the strict pre-submit check used by signup forms. Unlike
// SanitizeSlug it never rewrites the input.
func ValidateSlug(slug string) error {
	if !strictSlugPattern.MatchString(slug) {
		return errors.Validationf("workspace URL must be 3-63 characters of lowercase letters, numbers and hyphens, and cannot start or end with a hyphen")
	}
	return nil
}

// ValidRootDomain reports whether host (optionally with port) is a
// conservative hostname that is safe to redirect to.
func ValidRootDomain(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	return rootDomainPattern.MatchString(host)
}

// LoginURL builds the login page URL of the tenant identified by slug, relative
// to the current location. Localhost style hosts keep their host and carry the
// tenant in the query string, other hosts get a <slug>.<rootDomain> hostname.
// rootDomain may be empty, in which case it is derived from loc.
func LoginURL(loc *url.URL, slug, rootDomain string) (string, error) {
	if loc == nil {
		return "", errors.Wrapf(errors.ErrInvalidRootDomain, "no current location")
	}
	clean := SanitizeSlug(slug)
	if clean == "" {
		return "", errors.Wrapf(errors.ErrInvalidTenantSlug, "slug %q", slug)
	}

	scheme := "http"
	if loc.Scheme == "https" {
		scheme = "https"
	}

	if IsLocalHost(loc.Hostname()) {
		host := strings.ToLower(loc.Host)
		if !ValidRootDomain(host) {
			return "", errors.Wrapf(errors.ErrInvalidRootDomain, "host %q", loc.Host)
		}
		u := url.URL{
			Scheme:   scheme,
			Host:     host,
			Path:     "/login",
			RawQuery: url.Values{QueryParam: []string{clean}}.Encode(),
		}
		return u.String(), nil
	}

	if rootDomain == "" {
		rootDomain = RootDomainOf(loc)
	}
	rootDomain = strings.ToLower(rootDomain)
	if !ValidRootDomain(rootDomain) {
		return "", errors.Wrapf(errors.ErrInvalidRootDomain, "root domain %q", rootDomain)
	}

	u := url.URL{
		Scheme: scheme,
		Host:   clean + "." + rootDomain,
		Path:   "/login",
	}
	return u.String(), nil
}
