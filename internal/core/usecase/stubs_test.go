package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
)

type memTenantRepo struct {
	mu      sync.Mutex
	nextID  int64
	byKey   map[string]domain.Tenant
	creates int
}

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{byKey: map[string]domain.Tenant{}}
}

func (r *memTenantRepo) Create(_ context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if _, ok := r.byKey[tenant.Key]; ok {
		return domain.Tenant{}, domain.ErrDuplicateKey
	}
	r.nextID++
	now := time.Now().UTC()
	tenant.ID = r.nextID
	tenant.Created = now
	tenant.Modified = now
	r.byKey[tenant.Key] = tenant
	return tenant, nil
}

func (r *memTenantRepo) FindByKey(_ context.Context, key string) (domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.byKey[key]
	if !ok {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	return tenant, nil
}

func (r *memTenantRepo) UpdateProfile(_ context.Context, key string, profile domain.TenantProfile) (domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.byKey[key]
	if !ok {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	tenant.Name, tenant.Email, tenant.Note = profile.Name, profile.Email, profile.Note
	tenant.Modified = domain.NextModified(tenant.Modified, time.Now())
	r.byKey[key] = tenant
	return tenant, nil
}

type pairKey struct {
	owner int64
	key   string
}

type memPairRepo struct {
	mu     sync.Mutex
	nextID int64
	pairs  map[pairKey]domain.Pair
	clock  func() time.Time
}

func newMemPairRepo() *memPairRepo {
	return &memPairRepo{pairs: map[pairKey]domain.Pair{}, clock: time.Now}
}

func (r *memPairRepo) List(_ context.Context, ownerID int64) ([]domain.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Pair
	for k, p := range r.pairs {
		if k.owner == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *memPairRepo) Get(_ context.Context, ownerID int64, key string) (domain.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pairs[pairKey{ownerID, key}]
	if !ok {
		return domain.Pair{}, domain.ErrPairNotFound
	}
	return p, nil
}

func (r *memPairRepo) Upsert(_ context.Context, ownerID int64, key, value string) (domain.Pair, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := pairKey{ownerID, key}
	p, ok := r.pairs[k]
	p.Modified = domain.NextModified(p.Modified, r.clock())
	if !ok {
		r.nextID++
		p = domain.Pair{ID: r.nextID, OwnerID: ownerID, Key: key, Created: p.Modified, Modified: p.Modified}
	}
	p.Value = value
	r.pairs[k] = p
	return p, !ok, nil
}

type countingRecorder struct {
	mu         sync.Mutex
	tenants    int
	collisions int
	created    int
	updated    int
	authFails  int
}

func (c *countingRecorder) TenantCreated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenants++
}

func (c *countingRecorder) KeyCollision() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collisions++
}

func (c *countingRecorder) PairUpserted(created bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if created {
		c.created++
	} else {
		c.updated++
	}
}

func (c *countingRecorder) AuthorizationFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authFails++
}
