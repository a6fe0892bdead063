package resources

import "time"

// Record is implemented by every model so collections can address it by id.
type Record interface {
	RecordID() string
}

type Resident struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	RoomID      string    `json:"roomId,omitempty"`
	BedID       string    `json:"bedId,omitempty"`
	Status      string    `json:"status,omitempty"` // active, notice, vacated
	MonthlyRent float64   `json:"monthlyRent,omitempty"`
	JoinedAt    time.Time `json:"joinedAt,omitzero"`
}

func (r Resident) RecordID() string { return r.ID }

type Building struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Floors  int    `json:"floors,omitempty"`
}

func (b Building) RecordID() string { return b.ID }

type Room struct {
	ID         string  `json:"id"`
	BuildingID string  `json:"buildingId"`
	Number     string  `json:"number"`
	Floor      int     `json:"floor,omitempty"`
	Capacity   int     `json:"capacity"`
	Rent       float64 `json:"rent,omitempty"`
}

func (r Room) RecordID() string { return r.ID }

type Bed struct {
	ID         string `json:"id"`
	RoomID     string `json:"roomId"`
	Label      string `json:"label"`
	ResidentID string `json:"residentId,omitempty"`
}

func (b Bed) RecordID() string { return b.ID }

// Payment covers rent, extra charges and security deposits; Kind tells them apart.
type Payment struct {
	ID         string    `json:"id"`
	ResidentID string    `json:"residentId"`
	Kind       string    `json:"kind,omitempty"`
	Amount     float64   `json:"amount"`
	Month      string    `json:"month,omitempty"` // YYYY-MM, rent only
	Status     string    `json:"status,omitempty"`
	PaidAt     time.Time `json:"paidAt,omitzero"`
}

func (p Payment) RecordID() string { return p.ID }

type Complaint struct {
	ID          string    `json:"id"`
	ResidentID  string    `json:"residentId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"` // open, in_progress, resolved
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

func (c Complaint) RecordID() string { return c.ID }

type Visitor struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ResidentID string    `json:"residentId,omitempty"`
	Purpose    string    `json:"purpose,omitempty"`
	CheckIn    time.Time `json:"checkIn,omitzero"`
	CheckOut   time.Time `json:"checkOut,omitzero"`
}

func (v Visitor) RecordID() string { return v.ID }

type GatePass struct {
	ID         string    `json:"id"`
	ResidentID string    `json:"residentId"`
	Reason     string    `json:"reason,omitempty"`
	From       time.Time `json:"from,omitzero"`
	To         time.Time `json:"to,omitzero"`
	Status     string    `json:"status,omitempty"`
}

func (g GatePass) RecordID() string { return g.ID }

type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

func (n Notice) RecordID() string { return n.ID }

type StaffMember struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Role   string  `json:"role,omitempty"`
	Phone  string  `json:"phone,omitempty"`
	Salary float64 `json:"salary,omitempty"`
}

func (s StaffMember) RecordID() string { return s.ID }

type Asset struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RoomID    string `json:"roomId,omitempty"`
	Condition string `json:"condition,omitempty"`
}

func (a Asset) RecordID() string { return a.ID }

// TenantAccount is a row of the admin tenant listing.
type TenantAccount struct {
	ID        string          `json:"id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	Plan      string          `json:"plan,omitempty"`
	Suspended bool            `json:"suspended"`
	Features  map[string]bool `json:"features,omitempty"`
}

func (t TenantAccount) RecordID() string { return t.ID }

type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Features []string `json:"features,omitempty"`
}

func (p Plan) RecordID() string { return p.ID }

type SMSTemplate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Body string `json:"body"`
}

func (s SMSTemplate) RecordID() string { return s.ID }

// DashboardSummary is the always reachable overview shown after login.
type DashboardSummary struct {
	Residents       int     `json:"residents"`
	Rooms           int     `json:"rooms"`
	OccupiedBeds    int     `json:"occupiedBeds"`
	VacantBeds      int     `json:"vacantBeds"`
	OpenComplaints  int     `json:"openComplaints"`
	RentCollected   float64 `json:"rentCollected"`
	RentOutstanding float64 `json:"rentOutstanding"`
}
