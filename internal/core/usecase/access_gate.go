package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
	"github.com/atvirokodosprendimai/kvss/internal/core/ports"
)

var ErrUnauthorized = errors.New("unauthorized")

// errUnknownKey matches both ErrUnauthorized and domain.ErrTenantNotFound.
var errUnknownKey = fmt.Errorf("%w: %w", ErrUnauthorized, domain.ErrTenantNotFound)

// AccessGate resolves a presented API key to its tenant. It holds no state
// between calls: every request is resolved against the registry.
type AccessGate struct {
	registry *RegistryService
	recorder ports.Recorder
}

func NewAccessGate(registry *RegistryService, recorder ports.Recorder) *AccessGate {
	if recorder == nil {
		recorder = ports.NopRecorder{}
	}
	return &AccessGate{registry: registry, recorder: recorder}
}

func (g *AccessGate) Authorize(ctx context.Context, apiKey string) (domain.Tenant, error) {
	apiKey = strings.TrimSpace(apiKey)
	if !domain.ValidAPIKey(apiKey) {
		g.recorder.AuthorizationFailed()
		return domain.Tenant{}, errUnknownKey
	}

	tenant, err := g.registry.ResolveTenant(ctx, apiKey)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			g.recorder.AuthorizationFailed()
			return domain.Tenant{}, errUnknownKey
		}
		return domain.Tenant{}, err
	}
	return tenant, nil
}
