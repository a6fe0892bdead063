package tenantrepofakes

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/pgportal/internal/errors"
	"github.com/jrsteele09/pgportal/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

// FakeTenantRepo keeps tenants in memory, indexed by id and by slug.
type FakeTenantRepo struct {
	tenants map[string]*tenants.Tenant
	slugs   map[string]string // slug to tenant id
	lock    sync.RWMutex
}

func NewFakeTenantRepo() tenants.Repo {
	return &FakeTenantRepo{
		tenants: make(map[string]*tenants.Tenant),
		slugs:   make(map[string]string),
	}
}

// Upsert stores t. A slug held by another tenant is a conflict.
func (tr *FakeTenantRepo) Upsert(t *tenants.Tenant) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if owner, ok := tr.slugs[t.Slug]; ok && owner != t.ID {
		return errors.Wrapf(errors.ErrConflict, "tenant slug %q", t.Slug)
	}
	if prev, ok := tr.tenants[t.ID]; ok && prev.Slug != t.Slug {
		delete(tr.slugs, prev.Slug)
	}
	tr.tenants[t.ID] = t
	tr.slugs[t.Slug] = t.ID
	return nil
}

func (tr *FakeTenantRepo) Delete(tenantID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if t, ok := tr.tenants[tenantID]; ok {
		delete(tr.slugs, t.Slug)
		delete(tr.tenants, tenantID)
	}
	return nil
}

func (tr *FakeTenantRepo) Get(tenantID string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrTenantNotFound, "id %s", tenantID)
	}
	return t, nil
}

func (tr *FakeTenantRepo) GetBySlug(slug string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	id, ok := tr.slugs[slug]
	if !ok {
		return nil, errors.Wrapf(errors.ErrTenantNotFound, "slug %q", slug)
	}
	return tr.tenants[id], nil
}

// List pages through the tenants ordered by slug. A limit <= 0 returns the rest.
func (tr *FakeTenantRepo) List(offset, limit int) ([]*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	list := make([]*tenants.Tenant, 0, len(tr.tenants))
	for _, t := range tr.tenants {
		list = append(list, t)
	}
	slices.SortFunc(list, func(a, b *tenants.Tenant) int {
		return strings.Compare(a.Slug, b.Slug)
	})

	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(list) {
		end = len(list)
	}
	return list[offset:end], nil
}
