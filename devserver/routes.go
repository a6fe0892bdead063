package devserver

import (
	"net/http"

	"github.com/jrsteele09/pgportal/resources"
	"github.com/jrsteele09/pgportal/token/jwt"
)

func (s *Server) initRoutes() {
	mw := s.APIMiddleware()
	tenantMW := s.APIMiddleware(s.RequireAuth(jwt.ScopeTenant))
	gatedMW := s.APIMiddleware(s.RequireAuth(jwt.ScopeTenant), s.RequireFeature)
	adminMW := s.APIMiddleware(s.RequireAuth(jwt.ScopeAdmin))

	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), mw...))

	// Preflight requests never carry cookies, so they are answered before any auth check
	s.RegisterRouteFunc("OPTIONS /", ChainMiddleware(http.NotFound, mw...))

	// Tenant session
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(jwt.ScopeTenant), mw...))
	s.RegisterRouteFunc("POST "+RouteAuthSignup, ChainMiddleware(s.SignupHandler(), mw...))
	s.RegisterRouteFunc("POST "+RouteAuthMe, ChainMiddleware(s.MeHandler(), tenantMW...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(jwt.ScopeTenant), mw...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(jwt.ScopeTenant), mw...))

	// Admin session
	s.RegisterRouteFunc("POST "+RouteAdminAuthLogin, ChainMiddleware(s.LoginHandler(jwt.ScopeAdmin), mw...))
	s.RegisterRouteFunc("POST "+RouteAdminAuthMe, ChainMiddleware(s.MeHandler(), adminMW...))
	s.RegisterRouteFunc("POST "+RouteAdminAuthRefresh, ChainMiddleware(s.RefreshHandler(jwt.ScopeAdmin), mw...))
	s.RegisterRouteFunc("POST "+RouteAdminAuthLogout, ChainMiddleware(s.LogoutHandler(jwt.ScopeAdmin), mw...))

	s.RegisterRouteFunc("GET "+RouteFeatureFlags, ChainMiddleware(s.FeatureFlagsHandler(), tenantMW...))
	s.RegisterRouteFunc("GET "+RouteDashboardSummary, ChainMiddleware(s.DashboardSummaryHandler(), tenantMW...))

	// Tenant users
	s.RegisterRouteFunc("GET "+RouteUsers, ChainMiddleware(s.UsersListHandler(), gatedMW...))
	s.RegisterRouteFunc("POST "+RouteUsers, ChainMiddleware(s.UsersCreateHandler(), gatedMW...))
	s.RegisterRouteFunc("GET "+RouteUser, ChainMiddleware(s.UserGetHandler(), gatedMW...))
	s.RegisterRouteFunc("DELETE "+RouteUser, ChainMiddleware(s.UserDeleteHandler(), gatedMW...))

	// Tenant resource families
	for _, family := range resources.TenantFamilies {
		if family == resources.UsersPath {
			continue
		}
		s.registerRecordRoutes(family, tenantPartition, gatedMW)
	}

	// Platform administration
	s.RegisterRouteFunc("GET "+RouteAdminTenants, ChainMiddleware(s.AdminTenantsListHandler(), adminMW...))
	s.RegisterRouteFunc("GET "+RouteAdminTenant, ChainMiddleware(s.AdminTenantGetHandler(), adminMW...))
	s.RegisterRouteFunc("PATCH "+RouteAdminTenant, ChainMiddleware(s.AdminTenantUpdateHandler(), adminMW...))
	s.RegisterRouteFunc("PATCH "+RouteAdminTenantFeatures, ChainMiddleware(s.AdminTenantFeaturesHandler(), adminMW...))
	s.registerRecordRoutes(resources.AdminPlansPath, platformPartition, adminMW)
	s.registerRecordRoutes(resources.AdminSMSTemplatesPath, platformPartition, adminMW)
}

func (s *Server) registerRecordRoutes(family string, partition partitionFunc, mw []func(http.HandlerFunc) http.HandlerFunc) {
	item := family + "/{id}"
	s.RegisterRouteFunc("GET "+family, ChainMiddleware(s.ListRecordsHandler(family, partition), mw...))
	s.RegisterRouteFunc("POST "+family, ChainMiddleware(s.CreateRecordHandler(family, partition), mw...))
	s.RegisterRouteFunc("GET "+item, ChainMiddleware(s.GetRecordHandler(family, partition), mw...))
	s.RegisterRouteFunc("PATCH "+item, ChainMiddleware(s.UpdateRecordHandler(family, partition), mw...))
	s.RegisterRouteFunc("DELETE "+item, ChainMiddleware(s.DeleteRecordHandler(family, partition), mw...))
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "env": s.env})
	}
}
