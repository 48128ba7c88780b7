package ports

import (
	"context"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
)

type PairRepository interface {
	List(ctx context.Context, ownerID int64) ([]domain.Pair, error)
	Get(ctx context.Context, ownerID int64, key string) (domain.Pair, error)
	// Upsert creates or overwrites the pair for (ownerID, key). The bool
	// reports whether a new row was created.
	Upsert(ctx context.Context, ownerID int64, key, value string) (domain.Pair, bool, error)
}
