package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubscriptionPlan struct {
	Id                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PluginId           uuid.UUID `gorm:"type:uuid;not null;index"`
	Name               string    `gorm:"type:varchar(255);not null"`
	Slug               string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description        string    `gorm:"type:text"`
	Price              float64   `gorm:"type:decimal(10,2);not null"`
	Currency           string    `gorm:"type:varchar(3);not null;default:'USD'"`
	DiscountPercentage float64   `gorm:"type:decimal(5,2);default:0"`
	SetupFee           float64   `gorm:"type:decimal(10,2);default:0"`
	BillingPeriod      string    `gorm:"type:billing_period;not null"`
	TrialDays          int       `gorm:"default:0"`
	IsActive           bool      `gorm:"default:true"`
	SortOrder          int       `gorm:"default:0"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

type PluginSubscription struct {
	Id                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PluginId           uuid.UUID  `gorm:"type:uuid;not null;index:idx_plugin_subs_plugin_tenant"`
	PlanId             uuid.UUID  `gorm:"type:uuid;not null;index"`
	TenantId           uuid.UUID  `gorm:"type:uuid;not null;index:idx_plugin_subs_plugin_tenant"`
	OrganizationId     *uuid.UUID `gorm:"type:uuid;index"`
	SubscriberId       *uuid.UUID `gorm:"type:uuid;index"`
	Scope              string     `gorm:"type:subscription_scope;not null"`
	BillingPeriod      string     `gorm:"type:billing_period;not null"`
	Status             string     `gorm:"type:subscription_status;not null;index"`
	StartDate          time.Time  `gorm:"not null"`
	EndDate            *time.Time
	TrialEndDate       *time.Time
	AutoRenew          bool `gorm:"default:true"`
	CancelledAt        *time.Time
	CancellationReason *string           `gorm:"type:text"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb"`
	// LockVersion is bumped on every update; stale writes affect zero rows.
	LockVersion int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (PluginSubscription) TableName() string {
	return "plugin_subscriptions"
}
