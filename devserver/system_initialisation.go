package devserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/pgportal/features"
	"github.com/jrsteele09/pgportal/internal/utils"
	"github.com/jrsteele09/pgportal/resources"
	"github.com/jrsteele09/pgportal/tenants"
	"github.com/jrsteele09/pgportal/users"
	"github.com/rs/zerolog/log"
)

const defaultPlan = "trial"

// Seed lists the accounts InitialiseSystem made sure exist.
type Seed struct {
	AdminEmail string
	// AdminPassword is empty when the administrator already existed.
	AdminPassword string
	DemoPassword  string
	Tenants       []SeedTenant
}

type SeedTenant struct {
	ID     string
	Slug   string
	Owner  string
	Others []string
}

// demoTenant describes a tenant created on first start.
type demoTenant struct {
	slug     string
	name     string
	plan     string
	features map[string]bool
	accounts []demoAccount
}

type demoAccount struct {
	email string
	name  string
	role  users.RoleType
}

var demoTenants = []demoTenant{
	{
		slug: "acme",
		name: "Acme Stays",
		plan: "pro",
		accounts: []demoAccount{
			{"owner@acme.test", "Asha Owner", users.RoleOwner},
			{"manager@acme.test", "Manoj Manager", users.RoleManager},
		},
	},
	{
		slug: "sunrise",
		name: "Sunrise PG",
		plan: "basic",
		features: map[string]bool{
			string(features.ExtraPayments): false,
			string(features.Complaints):    false,
			string(features.Assets):        false,
		},
		accounts: []demoAccount{
			{"owner@sunrise.test", "Suresh Owner", users.RoleOwner},
			{"staff@sunrise.test", "Sita Staff", users.RoleStaff},
		},
	},
}

// InitialiseSystem creates the platform administrator, the demo tenants with
// their accounts and a little sample data. Accounts that already exist are
// left alone.
func (s *Server) InitialiseSystem(ctx context.Context) (Seed, error) {
	seed := Seed{
		AdminEmail:   s.config.GetSystemAdminEmail(),
		DemoPassword: s.config.GetDemoPassword(),
	}

	adminPassword, err := s.createSuperAdmin(ctx, seed.AdminEmail, s.config.GetSystemAdminPassword())
	if err != nil {
		return Seed{}, fmt.Errorf("[server InitialiseSystem] failed to bootstrap super admin: %w", err)
	}
	seed.AdminPassword = adminPassword

	for _, demo := range demoTenants {
		st, err := s.createDemoTenant(ctx, demo, seed.DemoPassword)
		if err != nil {
			return Seed{}, fmt.Errorf("[server InitialiseSystem] failed to bootstrap tenant %s: %w", demo.slug, err)
		}
		seed.Tenants = append(seed.Tenants, st)
	}

	s.logSeed(seed)
	return seed, nil
}

// createSuperAdmin creates the platform administrator if missing. The
// password is returned only when the account was created.
func (s *Server) createSuperAdmin(_ context.Context, email, password string) (string, error) {
	if existing, err := s.repos.Users.GetByEmail(email); err == nil && existing.IsSuperAdmin() {
		return "", nil
	}

	if password == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[server createSuperAdmin] failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("[server createSuperAdmin] failed to hash password: %w", err)
	}

	admin := &users.User{
		Email:        email,
		Name:         "System Administrator",
		Role:         users.RoleSuperAdmin,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repos.Users.Upsert(admin); err != nil {
		return "", fmt.Errorf("[server createSuperAdmin] failed to store super admin: %w", err)
	}
	return password, nil
}

func (s *Server) createDemoTenant(_ context.Context, demo demoTenant, password string) (SeedTenant, error) {
	tenant, err := s.repos.Tenants.GetBySlug(demo.slug)
	if err != nil {
		tenant = &tenants.Tenant{
			ID:        uuid.New().String(),
			Slug:      demo.slug,
			Name:      demo.name,
			Plan:      demo.plan,
			Features:  maps.Clone(demo.features),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repos.Tenants.Upsert(tenant); err != nil {
			return SeedTenant{}, err
		}
		s.seedRecords(tenant.ID)
	}

	st := SeedTenant{ID: tenant.ID, Slug: tenant.Slug}
	for _, acc := range demo.accounts {
		if _, err := s.repos.Users.GetByEmail(acc.email); err != nil {
			hash, err := users.HashPassword(password)
			if err != nil {
				return SeedTenant{}, err
			}
			u := &users.User{
				Email:        acc.email,
				Name:         acc.name,
				Role:         acc.role,
				TenantID:     utils.Ptr(tenant.ID),
				PasswordHash: hash,
				CreatedAt:    time.Now().UTC(),
			}
			if err := s.repos.Users.Upsert(u); err != nil {
				return SeedTenant{}, err
			}
		}
		if acc.role == users.RoleOwner {
			st.Owner = acc.email
		} else {
			st.Others = append(st.Others, acc.email)
		}
	}
	return st, nil
}

// seedRecords gives a fresh tenant a building with one occupied room.
func (s *Server) seedRecords(tenantID string) {
	building := s.records.create(tenantID, resources.BuildingsPath, record{"name": "Main Block", "address": "1 MG Road"})
	room := s.records.create(tenantID, resources.RoomsPath, record{"buildingId": building.id(), "number": "101", "floor": 1, "capacity": 2, "rent": 8000.0})
	resident := s.records.create(tenantID, resources.ResidentsPath, record{"name": "Ravi Kumar", "roomId": room.id(), "status": "active", "monthlyRent": 8000.0})
	s.records.create(tenantID, resources.BedsPath, record{"roomId": room.id(), "label": "A", "residentId": resident.id()})
	s.records.create(tenantID, resources.BedsPath, record{"roomId": room.id(), "label": "B"})
	s.records.create(tenantID, resources.RentPaymentsPath, record{"residentId": resident.id(), "kind": "rent", "amount": 8000.0, "month": time.Now().Format("2006-01"), "status": "paid"})
}

func (s *Server) logSeed(seed Seed) {
	if seed.AdminPassword != "" {
		log.Info().Msg("👤 Super Admin Credentials:")
		log.Info().Msgf("   Email:       %s", seed.AdminEmail)
		log.Info().Msgf("   Password:    %s", seed.AdminPassword)
		log.Info().Msg("   ⚠️  SAVE THIS PASSWORD - it will not be displayed again!")
	}
	log.Info().Msgf("🏠 Demo tenants (password %s):", seed.DemoPassword)
	for _, t := range seed.Tenants {
		log.Info().Msgf("   %-10s owner %s, others %v", t.Slug, t.Owner, t.Others)
	}
}
