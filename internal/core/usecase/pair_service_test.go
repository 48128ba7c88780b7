package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
)

func newTenants(t *testing.T, n int) []domain.Tenant {
	t.Helper()
	svc := NewRegistryService(newMemTenantRepo())
	out := make([]domain.Tenant, 0, n)
	for i := 0; i < n; i++ {
		tenant, err := svc.CreateTenant(context.Background(), domain.TenantProfile{})
		require.NoError(t, err)
		out = append(out, tenant)
	}
	return out
}

func TestPairServiceRejectsUnresolvedTenant(t *testing.T) {
	svc := NewPairService(newMemPairRepo(), nil)
	ctx := context.Background()

	_, err := svc.List(ctx, domain.Tenant{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Get(ctx, domain.Tenant{ID: 1}, "color")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Upsert(ctx, domain.Tenant{Key: "k"}, "color", "blue")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPairServiceListEmpty(t *testing.T) {
	tenant := newTenants(t, 1)[0]
	svc := NewPairService(newMemPairRepo(), nil)

	pairs, err := svc.List(context.Background(), tenant)
	require.NoError(t, err)
	assert.NotNil(t, pairs)
	assert.Empty(t, pairs)
}

func TestPairServiceUpsertKeepsCreated(t *testing.T) {
	tenant := newTenants(t, 1)[0]
	repo := newMemPairRepo()
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return frozen }
	rec := &countingRecorder{}
	svc := NewPairService(repo, rec)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, tenant, "color", "blue")
	require.NoError(t, err)
	second, err := svc.Upsert(ctx, tenant, "color", "blue")
	require.NoError(t, err)
	third, err := svc.Upsert(ctx, tenant, "color", "red")
	require.NoError(t, err)

	assert.True(t, second.Created.Equal(first.Created))
	assert.True(t, third.Created.Equal(first.Created))
	assert.True(t, second.Modified.After(first.Modified))
	assert.True(t, third.Modified.After(second.Modified))
	assert.Equal(t, "red", third.Value)
	assert.Equal(t, 1, rec.created)
	assert.Equal(t, 2, rec.updated)

	pairs, err := svc.List(ctx, tenant)
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}

func TestPairServiceTenantIsolation(t *testing.T) {
	tenants := newTenants(t, 2)
	svc := NewPairService(newMemPairRepo(), nil)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, tenants[0], "color", "blue")
	require.NoError(t, err)

	_, err = svc.Get(ctx, tenants[1], "color")
	assert.ErrorIs(t, err, domain.ErrPairNotFound)

	pairs, err := svc.List(ctx, tenants[1])
	require.NoError(t, err)
	assert.Empty(t, pairs)

	_, err = svc.Upsert(ctx, tenants[1], "color", "green")
	require.NoError(t, err)
	got, err := svc.Get(ctx, tenants[0], "color")
	require.NoError(t, err)
	assert.Equal(t, "blue", got.Value)
}

func TestPairServiceInvalidKey(t *testing.T) {
	tenant := newTenants(t, 1)[0]
	svc := NewPairService(newMemPairRepo(), nil)

	_, err := svc.Get(context.Background(), tenant, "")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
	_, err = svc.Upsert(context.Background(), tenant, "", "v")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestPairServicePropagatesRepoError(t *testing.T) {
	tenant := newTenants(t, 1)[0]
	boom := errors.New("boom")
	svc := NewPairService(&failingPairRepo{err: boom}, nil)

	_, err := svc.List(context.Background(), tenant)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Upsert(context.Background(), tenant, "k", "v")
	assert.ErrorIs(t, err, boom)
}

type failingPairRepo struct{ err error }

func (f *failingPairRepo) List(context.Context, int64) ([]domain.Pair, error) { return nil, f.err }
func (f *failingPairRepo) Get(context.Context, int64, string) (domain.Pair, error) {
	return domain.Pair{}, f.err
}
func (f *failingPairRepo) Upsert(context.Context, int64, string, string) (domain.Pair, bool, error) {
	return domain.Pair{}, false, f.err
}
