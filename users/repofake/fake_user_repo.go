package fakeuserrepo

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/pgportal/internal/errors"
	"github.com/jrsteele09/pgportal/internal/utils"
	"github.com/jrsteele09/pgportal/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo keeps accounts in memory. Emails are matched case-insensitively.
type FakeUserRepo struct {
	users   map[string]*users.User
	byEmail map[string]string // lower-cased email to user id
	lock    sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:   make(map[string]*users.User),
		byEmail: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	key := strings.ToLower(user.Email)
	if owner, ok := ur.byEmail[key]; ok && owner != user.ID {
		return errors.Wrapf(errors.ErrConflict, "email %s", user.Email)
	}
	if prev, ok := ur.users[user.ID]; ok {
		delete(ur.byEmail, strings.ToLower(prev.Email))
	}
	ur.users[user.ID] = user
	ur.byEmail[key] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(email string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	key := strings.ToLower(email)
	userID, ok := ur.byEmail[key]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "user %s", email)
	}
	delete(ur.byEmail, key)
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "user %s", email)
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "user %s", id)
	}
	return u, nil
}

// ListByTenant returns the tenant's accounts ordered by email.
func (ur *FakeUserRepo) ListByTenant(tenantID string) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*users.User, 0)
	for _, u := range ur.users {
		if utils.Value(u.TenantID) == tenantID {
			list = append(list, u)
		}
	}
	slices.SortFunc(list, func(a, b *users.User) int {
		return strings.Compare(a.Email, b.Email)
	})
	return list, nil
}
