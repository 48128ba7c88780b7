package gormstore

import (
	"time"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
)

type tenantModel struct {
	ID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Created  time.Time `gorm:"column:created;not null"`
	Modified time.Time `gorm:"column:modified;not null"`
	Name     string    `gorm:"column:name;not null"`
	Email    string    `gorm:"column:email;not null"`
	Key      string    `gorm:"column:key;not null;uniqueIndex:apikey_key_uidx"`
	Note     string    `gorm:"column:note;not null"`
}

func (tenantModel) TableName() string {
	return "apikey"
}

type pairModel struct {
	ID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Created  time.Time `gorm:"column:created;not null"`
	Modified time.Time `gorm:"column:modified;not null"`
	OwnerID  int64     `gorm:"column:owner_id;not null;uniqueIndex:kvpair_owner_key_uidx"`
	Key      string    `gorm:"column:key;not null;uniqueIndex:kvpair_owner_key_uidx"`
	Value    string    `gorm:"column:value;not null"`
}

func (pairModel) TableName() string {
	return "kvpair"
}

func toTenantDomain(m tenantModel) domain.Tenant {
	return domain.Tenant{
		ID:       m.ID,
		Key:      m.Key,
		Name:     m.Name,
		Email:    m.Email,
		Note:     m.Note,
		Created:  m.Created.UTC(),
		Modified: m.Modified.UTC(),
	}
}

func toPairDomain(m pairModel) domain.Pair {
	return domain.Pair{
		ID:       m.ID,
		OwnerID:  m.OwnerID,
		Key:      m.Key,
		Value:    m.Value,
		Created:  m.Created.UTC(),
		Modified: m.Modified.UTC(),
	}
}
