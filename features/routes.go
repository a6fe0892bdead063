package features

import "strings"

// route binds a feature to the API path families it owns.
type route struct {
	feature  Key
	prefixes []string
}

// residentsList feeds dropdowns across most features, so the list endpoint
// itself is never gated. Paths below it go through the route table.
const residentsList = "/residents"

// ungatedPrefixes are reachable regardless of tenant feature configuration:
// the UI cannot work at all without the admin API and the dashboard summary.
var ungatedPrefixes = []string{
	"/admin",
	"/dashboard/summary",
}

// routeTable is matched in order and the first match wins, so the payment
// sub-resources sit ahead of anything broader.
var routeTable = []route{
	{ExtraPayments, []string{"/payments/extra"}},
	{SecurityDeposits, []string{"/payments/security-deposits"}},
	{RentPayments, []string{"/payments/rent"}},
	{Rooms, []string{"/rooms", "/beds"}},
	{Buildings, []string{"/buildings"}},
	{Complaints, []string{"/complaints"}},
	{Visitors, []string{"/visitors", "/gate-passes"}},
	{Notices, []string{"/notices"}},
	{Staff, []string{"/staff"}},
	{Assets, []string{"/assets"}},
	{UserManagement, []string{"/users"}},
}

// NormalizePath strips the query string, fragment and trailing slashes.
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// ResolveFeatureKey maps an API path to the feature that owns it. ok is false
// for ungated paths and paths no feature claims.
func ResolveFeatureKey(path string) (key Key, ok bool) {
	path = NormalizePath(path)
	if path == residentsList {
		return "", false
	}

	for _, prefix := range ungatedPrefixes {
		if hasSegmentPrefix(path, prefix) {
			return "", false
		}
	}

	for _, r := range routeTable {
		for _, prefix := range r.prefixes {
			if hasSegmentPrefix(path, prefix) {
				return r.feature, true
			}
		}
	}
	return "", false
}

// GatedKeys lists the features the gate can block, in table order.
func GatedKeys() []Key {
	keys := make([]Key, 0, len(routeTable))
	for _, r := range routeTable {
		keys = append(keys, r.feature)
	}
	return keys
}

// hasSegmentPrefix matches whole path segments, so /staff does not claim /staffing.
func hasSegmentPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
