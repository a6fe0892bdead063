package resources

// API paths of the resource families. The tenant scoped families are subject
// to feature gating, the admin ones are not.
const (
	ResidentsPath        = "/residents"
	RoomsPath            = "/rooms"
	BedsPath             = "/beds"
	BuildingsPath        = "/buildings"
	RentPaymentsPath     = "/payments/rent"
	ExtraPaymentsPath    = "/payments/extra"
	SecurityDepositsPath = "/payments/security-deposits"
	ComplaintsPath       = "/complaints"
	VisitorsPath         = "/visitors"
	GatePassesPath       = "/gate-passes"
	NoticesPath          = "/notices"
	StaffPath            = "/staff"
	AssetsPath           = "/assets"
	UsersPath            = "/users"
	DashboardSummaryPath = "/dashboard/summary"

	AdminTenantsPath      = "/admin/tenants"
	AdminPlansPath        = "/admin/plans"
	AdminSMSTemplatesPath = "/admin/notifications/sms-templates"
)

// TenantFamilies lists every tenant scoped CRUD family.
var TenantFamilies = []string{
	ResidentsPath,
	RoomsPath,
	BedsPath,
	BuildingsPath,
	RentPaymentsPath,
	ExtraPaymentsPath,
	SecurityDepositsPath,
	ComplaintsPath,
	VisitorsPath,
	GatePassesPath,
	NoticesPath,
	StaffPath,
	AssetsPath,
	UsersPath,
}

// AdminFamilies lists the platform administration families.
var AdminFamilies = []string{
	AdminTenantsPath,
	AdminPlansPath,
	AdminSMSTemplatesPath,
}
