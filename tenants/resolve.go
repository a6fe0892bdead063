package tenants

import (
	"net"
	"net/url"
	"strings"
)

// QueryParam is the query parameter carrying the tenant slug on hosts that
// cannot carry a subdomain (localhost, bare IPs).
const QueryParam = "tenant"

// reservedSubdomains are first labels that belong to the platform, not to a tenant.
var reservedSubdomains = map[string]struct{}{
	"www":   {},
	"app":   {},
	"api":   {},
	"admin": {},
}

// Resolve derives the active tenant slug from a browsing location.
// A subdomain wins over the query parameter. Localhost, loopback and bare IP
// hosts never imply a tenant from their hostname and must use ?tenant=<slug>.
// The returned slug is always sanitized.
func Resolve(loc *url.URL) (string, bool) {
	if loc == nil {
		return "", false
	}

	host := strings.ToLower(loc.Hostname())
	if !IsLocalHost(host) {
		if slug, ok := subdomainSlug(host); ok {
			return slug, true
		}
	}

	if slug := SanitizeSlug(loc.Query().Get(QueryParam)); slug != "" {
		return slug, true
	}
	return "", false
}

// IsLocalHost reports whether host is localhost, a *.localhost name or an IP literal.
func IsLocalHost(host string) bool {
	host = strings.ToLower(strings.Trim(host, "[]"))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	return net.ParseIP(host) != nil
}

// RootDomainOf returns the host the tenant subdomains hang off, keeping the port.
// "acme.pgportal.app:8443" -> "pgportal.app:8443", "pgportal.app" -> "pgportal.app".
func RootDomainOf(loc *url.URL) string {
	if loc == nil {
		return ""
	}
	host := strings.ToLower(loc.Hostname())
	if !IsLocalHost(host) {
		if labels := strings.Split(host, "."); len(labels) >= 3 {
			host = strings.Join(labels[1:], ".")
		}
	}
	if port := loc.Port(); port != "" {
		return host + ":" + port
	}
	return host
}

func subdomainSlug(host string) (string, bool) {
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return "", false
	}
	if _, reserved := reservedSubdomains[labels[0]]; reserved {
		return "", false
	}
	slug := SanitizeSlug(labels[0])
	return slug, slug != ""
}
