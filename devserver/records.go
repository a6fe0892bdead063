package devserver

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// platformScope holds the records of the admin families, which belong to no tenant.
const platformScope = ""

// record is a schemaless resource as the client sent it.
type record map[string]any

func (r record) id() string {
	id, _ := r["id"].(string)
	return id
}

// recordStore keeps every resource family in memory, partitioned by tenant.
// Records come back in insertion order.
type recordStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]record // tenant id -> family path -> records
}

func newRecordStore() *recordStore {
	return &recordStore{data: make(map[string]map[string][]record)}
}

func (rs *recordStore) list(tenantID, family string) []record {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	src := rs.data[tenantID][family]
	out := make([]record, 0, len(src))
	for _, rec := range src {
		out = append(out, maps.Clone(rec))
	}
	return out
}

func (rs *recordStore) get(tenantID, family, id string) (record, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	if i := rs.indexLocked(tenantID, family, id); i >= 0 {
		return maps.Clone(rs.data[tenantID][family][i]), true
	}
	return nil, false
}

// create stores rec under a fresh id unless it already carries one.
func (rs *recordStore) create(tenantID, family string, rec record) record {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rec = maps.Clone(rec)
	if rec.id() == "" {
		rec["id"] = uuid.New().String()
	}
	if _, ok := rec["createdAt"]; !ok {
		rec["createdAt"] = time.Now().UTC().Format(time.RFC3339)
	}

	families, ok := rs.data[tenantID]
	if !ok {
		families = make(map[string][]record)
		rs.data[tenantID] = families
	}
	families[family] = append(families[family], rec)
	return maps.Clone(rec)
}

// update merges patch into the stored record. The id cannot be changed.
func (rs *recordStore) update(tenantID, family, id string, patch record) (record, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	i := rs.indexLocked(tenantID, family, id)
	if i < 0 {
		return nil, false
	}
	merged := maps.Clone(rs.data[tenantID][family][i])
	maps.Copy(merged, patch)
	merged["id"] = id
	rs.data[tenantID][family][i] = merged
	return maps.Clone(merged), true
}

func (rs *recordStore) delete(tenantID, family, id string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	i := rs.indexLocked(tenantID, family, id)
	if i < 0 {
		return false
	}
	recs := rs.data[tenantID][family]
	rs.data[tenantID][family] = append(recs[:i:i], recs[i+1:]...)
	return true
}

func (rs *recordStore) count(tenantID, family string) int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.data[tenantID][family])
}

func (rs *recordStore) indexLocked(tenantID, family, id string) int {
	for i, rec := range rs.data[tenantID][family] {
		if rec.id() == id {
			return i
		}
	}
	return -1
}
