package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atvirokodosprendimai/kvss/internal/adapters/gormstore/gormdb"
	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
)

type PairRepository struct {
	db  *gormdb.DB
	now func() time.Time
}

func NewPairRepository(db *gormdb.DB) *PairRepository {
	return &PairRepository{db: db, now: time.Now}
}

func (r *PairRepository) List(ctx context.Context, ownerID int64) ([]domain.Pair, error) {
	var models []pairModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("owner_id = ?", ownerID).Order("key ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list pairs: %w", err)
	}

	pairs := make([]domain.Pair, 0, len(models))
	for _, m := range models {
		pairs = append(pairs, toPairDomain(m))
	}
	return pairs, nil
}

func (r *PairRepository) Get(ctx context.Context, ownerID int64, key string) (domain.Pair, error) {
	var model pairModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("owner_id = ? AND key = ?", ownerID, key).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Pair{}, domain.ErrPairNotFound
		}
		return domain.Pair{}, fmt.Errorf("get pair: %w", err)
	}
	return toPairDomain(model), nil
}

// Upsert writes value under (ownerID, key) in one write transaction. An
// existing row is loaded (locked on Postgres) and updated in place, so
// created never changes and modified always moves past the stored value. An
// absent row is inserted with ON CONFLICT DO NOTHING on the (owner_id, key)
// unique index; a writer that loses that race falls back to the update path.
func (r *PairRepository) Upsert(ctx context.Context, ownerID int64, key, value string) (domain.Pair, bool, error) {
	var (
		out     pairModel
		created bool
	)
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		found, err := r.loadForUpdate(tx, ownerID, key, &out)
		if err != nil {
			return err
		}

		if !found {
			modified := domain.NextModified(time.Time{}, r.now())
			out = pairModel{
				Created:  modified,
				Modified: modified,
				OwnerID:  ownerID,
				Key:      key,
				Value:    value,
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "owner_id"}, {Name: "key"}},
				DoNothing: true,
			}).Create(&out)
			if res.Error != nil {
				return fmt.Errorf("insert pair: %w", res.Error)
			}
			if res.RowsAffected == 1 {
				created = true
				return nil
			}

			out = pairModel{}
			if found, err = r.loadForUpdate(tx, ownerID, key, &out); err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("insert pair: conflicting row for %q vanished", key)
			}
		}

		out.Value = value
		out.Modified = domain.NextModified(out.Modified, r.now())
		if err := tx.Model(&pairModel{}).
			Where("id = ?", out.ID).
			Updates(map[string]any{"value": out.Value, "modified": out.Modified}).Error; err != nil {
			return fmt.Errorf("update pair: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Pair{}, false, err
	}
	return toPairDomain(out), created, nil
}

// loadForUpdate reads the (ownerID, key) row into dst. On Postgres the row is
// locked until the transaction ends; SQLite writers are already serialized by
// the single immediate-mode writer connection.
func (r *PairRepository) loadForUpdate(tx *gormdb.Tx, ownerID int64, key string, dst *pairModel) (bool, error) {
	q := tx.Where("owner_id = ? AND key = ?", ownerID, key)
	if r.db.Dialect() == gormdb.Postgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(dst).Error
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("load existing pair: %w", err)
	}
}
