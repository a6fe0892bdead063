package features

import (
	"encoding/json"

	"github.com/jrsteele09/pgportal/storage"
	"github.com/pkg/errors"
)

// StorageKey is the local storage entry mirroring the current user's flags.
const StorageKey = "featureFlags"

// Cache is the synchronous, storage backed copy of the flags that the Gate
// reads on every request and the Service writes after each fetch.
type Cache struct {
	store storage.Store
}

func NewCache(store storage.Store) *Cache {
	return &Cache{store: store}
}

// Load returns the cached flags. A missing entry is an empty map.
func (c *Cache) Load() (Flags, error) {
	raw, err := c.store.Get(StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Flags{}, nil
	}
	if err != nil {
		return Flags{}, errors.Wrap(err, "[Cache.Load] store.Get")
	}

	flags := Flags{}
	if err := json.Unmarshal(raw, &flags); err != nil {
		return Flags{}, errors.Wrap(err, "[Cache.Load] corrupt feature flag cache")
	}
	return flags, nil
}

// Save overwrites the cached flags.
func (c *Cache) Save(flags Flags) error {
	if flags == nil {
		flags = Flags{}
	}
	raw, err := json.Marshal(flags)
	if err != nil {
		return errors.Wrap(err, "[Cache.Save] marshal")
	}
	return c.store.Set(StorageKey, raw)
}

// Clear removes the entry so no flags survive a logout.
func (c *Cache) Clear() error {
	return c.store.Remove(StorageKey)
}
