package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
	"github.com/atvirokodosprendimai/kvss/internal/core/ports"
)

// maxKeyAttempts bounds how many keys CreateTenant generates before giving
// up with domain.ErrDuplicateKey.
const maxKeyAttempts = 5

type RegistryService struct {
	repo     ports.TenantRepository
	generate KeyGenerator
	recorder ports.Recorder
}

type RegistryOption func(*RegistryService)

func WithKeyGenerator(gen KeyGenerator) RegistryOption {
	return func(s *RegistryService) { s.generate = gen }
}

func WithRegistryRecorder(rec ports.Recorder) RegistryOption {
	return func(s *RegistryService) { s.recorder = rec }
}

func NewRegistryService(repo ports.TenantRepository, opts ...RegistryOption) *RegistryService {
	s := &RegistryService{repo: repo, generate: GenerateKey, recorder: ports.NopRecorder{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTenant issues a new key. A key collision regenerates the key, up to
// maxKeyAttempts times.
func (s *RegistryService) CreateTenant(ctx context.Context, profile domain.TenantProfile) (domain.Tenant, error) {
	profile = profile.Normalize()

	var created domain.Tenant
	op := func() error {
		key, err := s.generate()
		if err != nil {
			return backoff.Permanent(err)
		}
		tenant, err := s.repo.Create(ctx, domain.Tenant{
			Key:   key,
			Name:  profile.Name,
			Email: profile.Email,
			Note:  profile.Note,
		})
		if errors.Is(err, domain.ErrDuplicateKey) {
			s.recorder.KeyCollision()
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		created = tenant
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxKeyAttempts-1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return domain.Tenant{}, fmt.Errorf("create tenant: %w", err)
	}
	s.recorder.TenantCreated()
	return created, nil
}

func (s *RegistryService) ResolveTenant(ctx context.Context, key string) (domain.Tenant, error) {
	if key == "" {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	return s.repo.FindByKey(ctx, key)
}

func (s *RegistryService) UpdateTenant(ctx context.Context, key string, profile domain.TenantProfile) (domain.Tenant, error) {
	if key == "" {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	return s.repo.UpdateProfile(ctx, key, profile.Normalize())
}
