package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PluginBilling struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubscriptionId uuid.UUID  `gorm:"type:uuid;not null;index"`
	TenantId       uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrganizationId *uuid.UUID `gorm:"type:uuid"`
	Amount         float64    `gorm:"type:decimal(10,2);not null"`
	Currency       string     `gorm:"type:varchar(3);not null;default:'USD'"`
	Status         string     `gorm:"type:billing_status;not null;index"`
	BillingDate    time.Time  `gorm:"not null;index"`
	DueDate        time.Time  `gorm:"not null;index"`
	PeriodStart    time.Time  `gorm:"not null"`
	PeriodEnd      *time.Time
	Description    string            `gorm:"type:text"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	PaidAt         *time.Time
	FailureReason  *string   `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (PluginBilling) TableName() string {
	return "plugin_billings"
}
