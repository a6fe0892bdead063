package resources

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"
)

// API groups a collection per resource family.
type API struct {
	client Client

	Residents        *Collection[Resident]
	Rooms            *Collection[Room]
	Beds             *Collection[Bed]
	Buildings        *Collection[Building]
	RentPayments     *Collection[Payment]
	ExtraPayments    *Collection[Payment]
	SecurityDeposits *Collection[Payment]
	Complaints       *Collection[Complaint]
	Visitors         *Collection[Visitor]
	GatePasses       *Collection[GatePass]
	Notices          *Collection[Notice]
	Staff            *Collection[StaffMember]
	Assets           *Collection[Asset]

	Tenants      *Collection[TenantAccount]
	Plans        *Collection[Plan]
	SMSTemplates *Collection[SMSTemplate]
}

func New(client Client) *API {
	return &API{
		client:           client,
		Residents:        NewCollection[Resident](client, ResidentsPath),
		Rooms:            NewCollection[Room](client, RoomsPath),
		Beds:             NewCollection[Bed](client, BedsPath),
		Buildings:        NewCollection[Building](client, BuildingsPath),
		RentPayments:     NewCollection[Payment](client, RentPaymentsPath),
		ExtraPayments:    NewCollection[Payment](client, ExtraPaymentsPath),
		SecurityDeposits: NewCollection[Payment](client, SecurityDepositsPath),
		Complaints:       NewCollection[Complaint](client, ComplaintsPath),
		Visitors:         NewCollection[Visitor](client, VisitorsPath),
		GatePasses:       NewCollection[GatePass](client, GatePassesPath),
		Notices:          NewCollection[Notice](client, NoticesPath),
		Staff:            NewCollection[StaffMember](client, StaffPath),
		Assets:           NewCollection[Asset](client, AssetsPath),
		Tenants:          NewCollection[TenantAccount](client, AdminTenantsPath),
		Plans:            NewCollection[Plan](client, AdminPlansPath),
		SMSTemplates:     NewCollection[SMSTemplate](client, AdminSMSTemplatesPath),
	}
}

// DashboardSummary fetches the overview counters.
func (a *API) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	var out DashboardSummary
	if err := a.client.Get(ctx, DashboardSummaryPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetTenantFeature switches one feature of a tenant on or off.
func (a *API) SetTenantFeature(ctx context.Context, tenantID, feature string, enabled bool) (*TenantAccount, error) {
	var out TenantAccount
	path := AdminTenantsPath + "/" + url.PathEscape(tenantID) + "/features"
	body := map[string]any{"features": map[string]bool{feature: enabled}}
	if err := a.client.Patch(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchAll runs fns concurrently. The first failure cancels the others and is
// returned; callers that can live with a partial page must handle errors
// inside their own fn.
func FetchAll(ctx context.Context, fns ...func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error {
			return fn(ctx)
		})
	}
	return g.Wait()
}

// RoomsPage is the data the rooms screen loads in one go.
type RoomsPage struct {
	Residents []Resident
	Rooms     []Room
	Buildings []Building
}

// LoadRoomsPage fetches residents, rooms and buildings in parallel.
func (a *API) LoadRoomsPage(ctx context.Context) (*RoomsPage, error) {
	page := &RoomsPage{}
	err := FetchAll(ctx,
		func(ctx context.Context) (err error) {
			page.Residents, err = a.Residents.List(ctx, nil)
			return err
		},
		func(ctx context.Context) (err error) {
			page.Rooms, err = a.Rooms.List(ctx, nil)
			return err
		},
		func(ctx context.Context) (err error) {
			page.Buildings, err = a.Buildings.List(ctx, nil)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return page, nil
}
