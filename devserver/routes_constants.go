package devserver

// Route path constants
// All API routes are defined here to ensure consistency and prevent typos
const (
	// Tenant session
	RouteAuthLogin   = "/auth/login"
	RouteAuthSignup  = "/auth/signup"
	RouteAuthMe      = "/auth/me"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"

	// Platform administrator session
	RouteAdminAuthLogin   = "/admin/auth/login"
	RouteAdminAuthMe      = "/admin/auth/me"
	RouteAdminAuthRefresh = "/admin/auth/refresh"
	RouteAdminAuthLogout  = "/admin/auth/logout"

	RouteFeatureFlags     = "/feature-flags/user"
	RouteDashboardSummary = "/dashboard/summary"
	RouteUsers            = "/users"
	RouteUser             = "/users/{id}"

	// Platform administration
	RouteAdminTenants        = "/admin/tenants"
	RouteAdminTenant         = "/admin/tenants/{id}"
	RouteAdminTenantFeatures = "/admin/tenants/{id}/features"

	RouteHealth = "/health"
)
