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

type TenantRepository struct {
	db  *gormdb.DB
	now func() time.Time
}

func NewTenantRepository(db *gormdb.DB) *TenantRepository {
	return &TenantRepository{db: db, now: time.Now}
}

func (r *TenantRepository) Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	now := domain.NextModified(time.Time{}, r.now())
	model := tenantModel{
		Created:  now,
		Modified: now,
		Name:     tenant.Name,
		Email:    tenant.Email,
		Key:      tenant.Key,
		Note:     tenant.Note,
	}

	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&model)
		if res.Error != nil {
			return fmt.Errorf("insert tenant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrDuplicateKey
		}
		return nil
	})
	if err != nil {
		return domain.Tenant{}, err
	}
	return toTenantDomain(model), nil
}

func (r *TenantRepository) FindByKey(ctx context.Context, key string) (domain.Tenant, error) {
	var model tenantModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("key = ?", key).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Tenant{}, domain.ErrTenantNotFound
		}
		return domain.Tenant{}, fmt.Errorf("find tenant: %w", err)
	}
	return toTenantDomain(model), nil
}

func (r *TenantRepository) UpdateProfile(ctx context.Context, key string, profile domain.TenantProfile) (domain.Tenant, error) {
	var model tenantModel
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		if err := tx.Where("key = ?", key).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTenantNotFound
			}
			return fmt.Errorf("load tenant: %w", err)
		}

		model.Name = profile.Name
		model.Email = profile.Email
		model.Note = profile.Note
		model.Modified = domain.NextModified(model.Modified, r.now())

		return tx.Model(&tenantModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]any{
				"name":     model.Name,
				"email":    model.Email,
				"note":     model.Note,
				"modified": model.Modified,
			}).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			return domain.Tenant{}, err
		}
		return domain.Tenant{}, fmt.Errorf("update tenant: %w", err)
	}
	return toTenantDomain(model), nil
}
