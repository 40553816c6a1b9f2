// FILE: internal/entity/billing_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type BillingStatus string
type BillingType string

const (
	BillingStatusPending BillingStatus = "pending"
	BillingStatusPaid    BillingStatus = "paid"
	BillingStatusFailed  BillingStatus = "failed"
	BillingStatusOverdue BillingStatus = "overdue"

	BillingTypeInitial BillingType = "initial"
	BillingTypeRenewal BillingType = "renewal"
	BillingTypeUpgrade BillingType = "upgrade"
)

// PluginBilling is one billing record per money-moving subscription
// transition. A record is immutable once paid; the repository rejects
// updates against paid rows.
type PluginBilling struct {
	Id             uuid.UUID
	SubscriptionId uuid.UUID
	TenantId       uuid.UUID
	OrganizationId *uuid.UUID
	Amount         float64
	Currency       string
	Status         BillingStatus
	BillingDate    time.Time
	DueDate        time.Time
	PeriodStart    time.Time
	PeriodEnd      *time.Time
	Description    string
	Metadata       map[string]interface{}
	PaidAt         *time.Time
	FailureReason  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Type reads the billing type (initial/renewal/upgrade) from metadata.
func (b *PluginBilling) Type() BillingType {
	if b.Metadata == nil {
		return ""
	}
	if t, ok := b.Metadata["type"].(string); ok {
		return BillingType(t)
	}
	return ""
}
