// FILE: internal/entity/subscription_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string
type SubscriptionScope string
type BillingPeriod string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"

	ScopeUser         SubscriptionScope = "USER"
	ScopeOrganization SubscriptionScope = "ORGANIZATION"
	ScopeTenant       SubscriptionScope = "TENANT"

	BillingPeriodDaily     BillingPeriod = "daily"
	BillingPeriodWeekly    BillingPeriod = "weekly"
	BillingPeriodMonthly   BillingPeriod = "monthly"
	BillingPeriodQuarterly BillingPeriod = "quarterly"
	BillingPeriodYearly    BillingPeriod = "yearly"
	BillingPeriodOneTime   BillingPeriod = "one_time"
)

// SuspensionThreshold is the cumulative payment-failure count at which a
// subscription is suspended.
const SuspensionThreshold = 3

type SubscriptionPlan struct {
	Id                 uuid.UUID
	PluginId           uuid.UUID
	Name               string
	Slug               string
	Description        string
	Price              float64
	Currency           string
	DiscountPercentage float64 // one-time promotional discount, initial billing only
	SetupFee           float64 // one-time onboarding charge, initial billing only
	BillingPeriod      BillingPeriod
	TrialDays          int
	IsActive           bool
	SortOrder          int
	CreatedAt          time.Time
}

// PluginSubscription is the central billing entity. Status and the payment
// failure counter in Metadata are owned by the lifecycle service and the
// billing event reactor; callers never write them directly.
type PluginSubscription struct {
	Id                 uuid.UUID
	PluginId           uuid.UUID
	PlanId             uuid.UUID
	TenantId           uuid.UUID
	OrganizationId     *uuid.UUID
	SubscriberId       *uuid.UUID
	Scope              SubscriptionScope
	BillingPeriod      BillingPeriod
	Status             SubscriptionStatus
	StartDate          time.Time
	EndDate            *time.Time
	TrialEndDate       *time.Time
	AutoRenew          bool
	CancelledAt        *time.Time
	CancellationReason *string
	Metadata           map[string]interface{}
	// LockVersion backs the optimistic-concurrency check on updates.
	LockVersion int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsInTrial reports whether the subscription is still inside its trial window.
func (s *PluginSubscription) IsInTrial(now time.Time) bool {
	return s.Status == SubscriptionStatusTrial &&
		s.TrialEndDate != nil && now.Before(*s.TrialEndDate)
}

// IsTerminal reports whether the subscription can no longer transition.
func (s *PluginSubscription) IsTerminal() bool {
	return s.Status == SubscriptionStatusCancelled || s.Status == SubscriptionStatusExpired
}

// FailureCount reads the cumulative payment failure counter from metadata.
// Values arrive as float64 after a JSON round-trip.
func (s *PluginSubscription) FailureCount() int {
	if s.Metadata == nil {
		return 0
	}
	switch v := s.Metadata["paymentFailureCount"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// SetMeta writes a metadata key, allocating the map on first use.
func (s *PluginSubscription) SetMeta(key string, value interface{}) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]interface{})
	}
	s.Metadata[key] = value
}
