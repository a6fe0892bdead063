package tenants

import "time"

// Tenant represents a PG/hostel business. The slug doubles as the tenant's
// subdomain, so it is restricted to what SanitizeSlug produces.
type Tenant struct {
	ID        string          `json:"id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	Plan      string          `json:"plan,omitempty"`
	Features  map[string]bool `json:"features,omitempty"` // Feature key -> enabled, absent keys are enabled
	Suspended bool            `json:"suspended,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
