package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"plugin-billing-be/internal/entity"
)

// ByPluginID filters by plugin
type ByPluginID struct {
	PluginID uuid.UUID
}

func (s ByPluginID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("plugin_id = ?", s.PluginID)
}

// ByTenantID filters by tenant
type ByTenantID struct {
	TenantID uuid.UUID
}

func (s ByTenantID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", s.TenantID)
}

// SubscriptionActive keeps subscriptions that currently grant access:
// active or in-trial status, not yet expired.
type SubscriptionActive struct {
	Now time.Time
}

func (s SubscriptionActive) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Where("status IN ?", []string{
			string(entity.SubscriptionStatusActive),
			string(entity.SubscriptionStatusTrial),
		}).
		Where("end_date IS NULL OR end_date > ?", s.Now)
}

// ByScope filters by subscription scope
type ByScope struct {
	Scope entity.SubscriptionScope
}

func (s ByScope) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("scope = ?", string(s.Scope))
}

// BySubscriberID filters USER-scope rows for one subscriber
type BySubscriberID struct {
	SubscriberID uuid.UUID
}

func (s BySubscriberID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subscriber_id = ?", s.SubscriberID)
}

// ByOrganizationID filters ORGANIZATION-scope rows for one organization
type ByOrganizationID struct {
	OrganizationID uuid.UUID
}

func (s ByOrganizationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("organization_id = ?", s.OrganizationID)
}

// RenewalDue selects auto-renewing subscriptions whose period ended.
type RenewalDue struct {
	Now time.Time
}

func (s RenewalDue) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Where("auto_renew = ?", true).
		Where("status = ?", string(entity.SubscriptionStatusActive)).
		Where("end_date IS NOT NULL AND end_date <= ?", s.Now)
}
