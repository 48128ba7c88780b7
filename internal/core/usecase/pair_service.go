package usecase

import (
	"context"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
	"github.com/atvirokodosprendimai/kvss/internal/core/ports"
)

// PairService operates on the pairs of a tenant returned by AccessGate.
type PairService struct {
	repo     ports.PairRepository
	recorder ports.Recorder
}

func NewPairService(repo ports.PairRepository, recorder ports.Recorder) *PairService {
	if recorder == nil {
		recorder = ports.NopRecorder{}
	}
	return &PairService{repo: repo, recorder: recorder}
}

func (s *PairService) List(ctx context.Context, tenant domain.Tenant) ([]domain.Pair, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	pairs, err := s.repo.List(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	if pairs == nil {
		pairs = []domain.Pair{}
	}
	return pairs, nil
}

func (s *PairService) Get(ctx context.Context, tenant domain.Tenant, key string) (domain.Pair, error) {
	if err := requireTenant(tenant); err != nil {
		return domain.Pair{}, err
	}
	if err := domain.ValidatePairKey(key); err != nil {
		return domain.Pair{}, err
	}
	return s.repo.Get(ctx, tenant.ID, key)
}

func (s *PairService) Upsert(ctx context.Context, tenant domain.Tenant, key, value string) (domain.Pair, error) {
	if err := requireTenant(tenant); err != nil {
		return domain.Pair{}, err
	}
	if err := domain.ValidatePairKey(key); err != nil {
		return domain.Pair{}, err
	}

	pair, created, err := s.repo.Upsert(ctx, tenant.ID, key, value)
	if err != nil {
		return domain.Pair{}, err
	}
	s.recorder.PairUpserted(created)
	return pair, nil
}

func requireTenant(tenant domain.Tenant) error {
	if tenant.ID == 0 || tenant.Key == "" {
		return ErrUnauthorized
	}
	return nil
}
