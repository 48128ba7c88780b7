package ports

import (
	"context"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
)

type TenantRepository interface {
	// Create inserts a new tenant. It returns domain.ErrDuplicateKey when the
	// key is already taken and leaves the existing tenant untouched.
	Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	FindByKey(ctx context.Context, key string) (domain.Tenant, error)
	UpdateProfile(ctx context.Context, key string, profile domain.TenantProfile) (domain.Tenant, error)
}
