package features

// Key identifies a functional area that can be switched off per tenant.
type Key string

const (
	Residents        Key = "residents"
	Rooms            Key = "rooms"
	Buildings        Key = "buildings"
	RentPayments     Key = "rentPayments"
	ExtraPayments    Key = "extraPayments"
	SecurityDeposits Key = "securityDeposits"
	Complaints       Key = "complaints"
	Visitors         Key = "visitors"
	Notices          Key = "notices"
	Staff            Key = "staff"
	Assets           Key = "assets"
	UserManagement   Key = "userManagement"
)

var labels = map[Key]string{
	Residents:        "Residents",
	Rooms:            "Rooms & Beds",
	Buildings:        "Buildings",
	RentPayments:     "Rent Payments",
	ExtraPayments:    "Extra Payments",
	SecurityDeposits: "Security Deposits",
	Complaints:       "Complaints",
	Visitors:         "Visitors & Gate Passes",
	Notices:          "Notices",
	Staff:            "Staff",
	Assets:           "Assets",
	UserManagement:   "User Management",
}

// Label is the human readable name used in notifications.
func (k Key) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Flags maps a feature key to its enabled state. Keys that are absent are enabled.
type Flags map[Key]bool

// Enabled applies the fail-open rule: only an explicit false disables.
func (f Flags) Enabled(k Key) bool {
	enabled, ok := f[k]
	return !ok || enabled
}

func (f Flags) clone() Flags {
	c := make(Flags, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}
